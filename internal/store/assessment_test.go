package store_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	st "github.com/sitegrader/sitegrader/internal/store"
	"github.com/sitegrader/sitegrader/internal/store/model"
)

const (
	insertAssessmentStm  = "INSERT INTO assessments (id, created_at, url, overall_status, total_cost, started_at) VALUES ('%s', now(), '%s', '%s', %f, now());"
	insertStageResultStm = "INSERT INTO stage_results (assessment_id, stage, position, status, attempts, duration_ms, cost_incurred) VALUES ('%s', '%s', %d, '%s', %d, %d, %f);"
	insertMetricsStm     = "INSERT INTO metrics_records (created_at, assessment_id, \"values\") VALUES (now(), '%s', '%s');"
)

var _ = Describe("Assessment store", Ordered, func() {
	var (
		store  st.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		gormdb, store = testDB()
	})

	AfterAll(func() {
		store.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM assessments;")
	})

	Context("list", func() {
		It("lists all assessments with their results in position order", func() {
			firstID := uuid.New()
			secondID := uuid.New()
			Expect(gormdb.Exec(fmt.Sprintf(insertAssessmentStm, firstID, "https://example.com", "completed", 0.08)).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertAssessmentStm, secondID, "https://other.net", "failed", 0.0)).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertStageResultStm, firstID, "security", 1, "succeeded", 1, 800, 0.0)).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertStageResultStm, firstID, "pagespeed", 0, "succeeded", 1, 1200, 0.0)).Error).To(BeNil())

			assessments, err := store.Assessment().List(context.TODO(), st.NewAssessmentQueryFilter())
			Expect(err).To(BeNil())
			Expect(assessments).To(HaveLen(2))

			for _, a := range assessments {
				if a.ID != firstID {
					continue
				}
				Expect(a.Results).To(HaveLen(2))
				Expect(a.Results[0].Stage).To(Equal("pagespeed"))
				Expect(a.Results[1].Stage).To(Equal("security"))
			}
		})

		It("filters by status", func() {
			Expect(gormdb.Exec(fmt.Sprintf(insertAssessmentStm, uuid.New(), "https://example.com", "completed", 0.0)).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertAssessmentStm, uuid.New(), "https://other.net", "failed", 0.0)).Error).To(BeNil())

			assessments, err := store.Assessment().List(context.TODO(), st.NewAssessmentQueryFilter().WithStatus("completed"))
			Expect(err).To(BeNil())
			Expect(assessments).To(HaveLen(1))
			Expect(assessments[0].OverallStatus).To(Equal("completed"))
		})

		It("filters by url substring", func() {
			Expect(gormdb.Exec(fmt.Sprintf(insertAssessmentStm, uuid.New(), "https://example.com", "completed", 0.0)).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertAssessmentStm, uuid.New(), "https://other.net", "completed", 0.0)).Error).To(BeNil())

			assessments, err := store.Assessment().List(context.TODO(), st.NewAssessmentQueryFilter().WithURLLike("example"))
			Expect(err).To(BeNil())
			Expect(assessments).To(HaveLen(1))
			Expect(assessments[0].URL).To(Equal("https://example.com"))
		})

		It("pages with limit and offset", func() {
			for i := 0; i < 5; i++ {
				Expect(gormdb.Exec(fmt.Sprintf(insertAssessmentStm, uuid.New(), fmt.Sprintf("https://site-%d.com", i), "completed", 0.0)).Error).To(BeNil())
			}

			assessments, err := store.Assessment().List(context.TODO(), st.NewAssessmentQueryFilter().WithLimit(2))
			Expect(err).To(BeNil())
			Expect(assessments).To(HaveLen(2))

			assessments, err = store.Assessment().List(context.TODO(), st.NewAssessmentQueryFilter().WithLimit(10).WithOffset(4))
			Expect(err).To(BeNil())
			Expect(assessments).To(HaveLen(1))
		})
	})

	Context("get", func() {
		It("loads the full graph", func() {
			id := uuid.New()
			Expect(gormdb.Exec(fmt.Sprintf(insertAssessmentStm, id, "https://example.com", "completed", 0.08)).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertStageResultStm, id, "pagespeed", 0, "succeeded", 1, 1200, 0.0)).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertMetricsStm, id, `{"Performance Score": 70}`)).Error).To(BeNil())

			assessment, err := store.Assessment().Get(context.TODO(), id)
			Expect(err).To(BeNil())
			Expect(assessment.URL).To(Equal("https://example.com"))
			Expect(assessment.Results).To(HaveLen(1))
			Expect(assessment.Metrics).ToNot(BeNil())
			Expect(assessment.Metrics.Values.Data).To(HaveKeyWithValue("Performance Score", 70.0))
		})

		It("returns ErrRecordNotFound for an unknown id", func() {
			_, err := store.Assessment().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})
	})

	Context("create", func() {
		It("persists the assessment with results and metrics in one graph", func() {
			id := uuid.New()
			score := 71.5
			assessment, err := store.Assessment().Create(context.TODO(), model.Assessment{
				ID:            id,
				URL:           "https://example.com",
				OverallStatus: "completed",
				OverallScore:  &score,
				Results: []model.StageResult{
					{AssessmentID: id, Stage: "pagespeed", Position: 0, Status: "succeeded", Attempts: 1},
					{AssessmentID: id, Stage: "security", Position: 1, Status: "failed", Attempts: 3},
				},
				Metrics: &model.MetricsRecord{
					AssessmentID: id,
					Values:       model.MakeJSONField(map[string]any{"Performance Score": 70.0}),
				},
			})
			Expect(err).To(BeNil())
			Expect(assessment.Results).To(HaveLen(2))
			Expect(assessment.Metrics).ToNot(BeNil())

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) FROM stage_results;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(2))
		})

		It("rejects a duplicate id", func() {
			id := uuid.New()
			_, err := store.Assessment().Create(context.TODO(), model.Assessment{ID: id, URL: "https://example.com", OverallStatus: "completed"})
			Expect(err).To(BeNil())

			_, err = store.Assessment().Create(context.TODO(), model.Assessment{ID: id, URL: "https://example.com", OverallStatus: "completed"})
			Expect(err).To(MatchError(st.ErrDuplicateKey))
		})
	})

	Context("delete", func() {
		It("cascades to stage results", func() {
			id := uuid.New()
			Expect(gormdb.Exec(fmt.Sprintf(insertAssessmentStm, id, "https://example.com", "completed", 0.0)).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertStageResultStm, id, "pagespeed", 0, "succeeded", 1, 1200, 0.0)).Error).To(BeNil())

			Expect(store.Assessment().Delete(context.TODO(), id)).To(Succeed())

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) FROM stage_results;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(0))
		})

		It("is a no-op for an unknown id", func() {
			Expect(store.Assessment().Delete(context.TODO(), uuid.New())).To(Succeed())
		})
	})
})
