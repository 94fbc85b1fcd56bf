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

var _ = Describe("Screenshot store", Ordered, func() {
	var (
		store        st.Store
		gormdb       *gorm.DB
		assessmentID uuid.UUID
	)

	BeforeAll(func() {
		gormdb, store = testDB()
	})

	AfterAll(func() {
		store.Close()
	})

	BeforeEach(func() {
		assessmentID = uuid.New()
		Expect(gormdb.Exec(fmt.Sprintf(insertAssessmentStm, assessmentID, "https://example.com", "completed", 0.0)).Error).To(BeNil())
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM screenshot_comparisons;")
		gormdb.Exec("DELETE FROM assessments;")
	})

	newScreenshot := func(shotType string) model.Screenshot {
		return model.Screenshot{
			ID:             uuid.New(),
			AssessmentID:   assessmentID,
			ScreenshotType: shotType,
			ViewportWidth:  1920,
			ViewportHeight: 1080,
			Format:         "png",
			StorageBucket:  "sitegrader-screenshots",
			StorageKey:     fmt.Sprintf("%s/%s.png", assessmentID, shotType),
			ByteSize:       2048,
		}
	}

	Context("create and get", func() {
		It("persists the artifact location", func() {
			created, err := store.Screenshot().Create(context.TODO(), newScreenshot("desktop"))
			Expect(err).To(BeNil())

			fetched, err := store.Screenshot().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(fetched.StorageBucket).To(Equal("sitegrader-screenshots"))
			Expect(fetched.StorageKey).To(Equal(fmt.Sprintf("%s/desktop.png", assessmentID)))
			Expect(fetched.ByteSize).To(Equal(int64(2048)))
		})

		It("returns ErrRecordNotFound for an unknown id", func() {
			_, err := store.Screenshot().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})
	})

	Context("list by assessment", func() {
		It("returns the assessment's artifacts only", func() {
			_, err := store.Screenshot().Create(context.TODO(), newScreenshot("desktop"))
			Expect(err).To(BeNil())
			_, err = store.Screenshot().Create(context.TODO(), newScreenshot("mobile"))
			Expect(err).To(BeNil())

			screenshots, err := store.Screenshot().ListByAssessment(context.TODO(), assessmentID)
			Expect(err).To(BeNil())
			Expect(screenshots).To(HaveLen(2))

			screenshots, err = store.Screenshot().ListByAssessment(context.TODO(), uuid.New())
			Expect(err).To(BeNil())
			Expect(screenshots).To(BeEmpty())
		})
	})

	Context("annotations", func() {
		It("appends detected elements to a screenshot", func() {
			created, err := store.Screenshot().Create(context.TODO(), newScreenshot("desktop"))
			Expect(err).To(BeNil())

			err = store.Screenshot().AddAnnotations(context.TODO(), created.ID, []model.ScreenshotAnnotation{
				{Label: "cta_button", Confidence: 0.92, X: 100, Y: 200, Width: 150, Height: 40},
				{Label: "nav_bar", Confidence: 0.88, X: 0, Y: 0, Width: 1920, Height: 80},
			})
			Expect(err).To(BeNil())

			fetched, err := store.Screenshot().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(fetched.Annotations).To(HaveLen(2))
		})

		It("accepts an empty annotation set", func() {
			created, err := store.Screenshot().Create(context.TODO(), newScreenshot("desktop"))
			Expect(err).To(BeNil())

			Expect(store.Screenshot().AddAnnotations(context.TODO(), created.ID, nil)).To(Succeed())
		})
	})

	Context("comparisons", func() {
		It("relates two screenshots in either direction", func() {
			base, err := store.Screenshot().Create(context.TODO(), newScreenshot("desktop"))
			Expect(err).To(BeNil())
			target, err := store.Screenshot().Create(context.TODO(), newScreenshot("mobile"))
			Expect(err).To(BeNil())

			_, err = store.Screenshot().AddComparison(context.TODO(), model.ScreenshotComparison{
				BaseID:     base.ID,
				TargetID:   target.ID,
				Similarity: 0.73,
				Diff:       model.MakeJSONField(map[string]any{"layout_shift": true}),
			})
			Expect(err).To(BeNil())

			forBase, err := store.Screenshot().ListComparisons(context.TODO(), base.ID)
			Expect(err).To(BeNil())
			Expect(forBase).To(HaveLen(1))

			forTarget, err := store.Screenshot().ListComparisons(context.TODO(), target.ID)
			Expect(err).To(BeNil())
			Expect(forTarget).To(HaveLen(1))
			Expect(forTarget[0].Similarity).To(BeNumerically("~", 0.73, 1e-9))
		})
	})

	Context("delete", func() {
		It("removes the artifact row and its annotations", func() {
			created, err := store.Screenshot().Create(context.TODO(), newScreenshot("desktop"))
			Expect(err).To(BeNil())
			Expect(store.Screenshot().AddAnnotations(context.TODO(), created.ID, []model.ScreenshotAnnotation{
				{Label: "cta_button", Confidence: 0.9},
			})).To(Succeed())

			Expect(store.Screenshot().Delete(context.TODO(), created.ID)).To(Succeed())

			_, err = store.Screenshot().Get(context.TODO(), created.ID)
			Expect(err).To(MatchError(st.ErrRecordNotFound))

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) FROM screenshot_annotations;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(0))
		})
	})
})
