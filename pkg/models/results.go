package models

import (
	"time"
)

// AnalysisResult contains the outcome of running the classifier on one image
type AnalysisResult struct {
	ID               string        `json:"id"`
	FileType         string        `json:"fileType"`
	Filename         string        `json:"filename"`
	DetectionScore   float64       `json:"detectionScore"` // 0.0-1.0, sigmoid output of the network
	Confidence       float64       `json:"confidence"`     // distance of the score from the decision threshold, scaled to 0.0-1.0
	Verdict          string        `json:"verdict"`
	Findings         []Finding     `json:"findings"`
	AnalysisTime     time.Time     `json:"analysisTime"`
	AnalysisDuration time.Duration `json:"analysisDuration"`
}

// Finding represents a specific observation made during analysis
type Finding struct {
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"` // 0.0-1.0
	Details     string  `json:"details"`
}

// AddFinding adds a finding to the analysis result
func (r *AnalysisResult) AddFinding(description string, confidence float64, details string) {
	r.Findings = append(r.Findings, Finding{
		Description: description,
		Confidence:  confidence,
		Details:     details,
	})
}

// IsStego reports whether the score crossed the decision threshold
func (r *AnalysisResult) IsStego() bool {
	return r.DetectionScore > DecisionThreshold
}
