package v1alpha1

func StringToAssessmentStatus(s string) AssessmentStatus {
	switch s {
	case string(AssessmentStatusRunning):
		return AssessmentStatusRunning
	case string(AssessmentStatusCompleted):
		return AssessmentStatusCompleted
	case string(AssessmentStatusPartiallyCompleted):
		return AssessmentStatusPartiallyCompleted
	case string(AssessmentStatusFailed):
		return AssessmentStatusFailed
	default:
		return AssessmentStatusFailed
	}
}
