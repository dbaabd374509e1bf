// Package analytics aggregates submitted interview experiences into the
// insight documents served by the company endpoints.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/divyesh007-delta/Placify-1/internal/model"
)

type OverallStats struct {
	TotalExperiences int            `json:"totalExperiences"`
	SuccessRate      float64        `json:"successRate"`
	SelectedCount    int            `json:"selectedCount"`
	RejectedCount    int            `json:"rejectedCount"`
	PendingCount     int            `json:"pendingCount"`
	AverageRating    float64        `json:"averageRating"`
	TopJobRoles      map[string]int `json:"topJobRoles"`
}

type TopicFrequency struct {
	Topic     string `json:"topic"`
	Frequency int    `json:"frequency"`
}

type RoundAnalysis struct {
	Frequency    int              `json:"frequency"`
	Percentage   float64          `json:"percentage"`
	Difficulty   string           `json:"difficulty"`
	CommonTopics []TopicFrequency `json:"commonTopics"`
}

type RoundDifficulty struct {
	AverageDifficulty float64 `json:"averageDifficulty"`
	DifficultyLevel   string  `json:"difficultyLevel"`
}

type QuestionFrequency struct {
	Question  string `json:"question"`
	Frequency int    `json:"frequency"`
}

type SuccessPatterns struct {
	CommonRounds       []TopicFrequency `json:"commonRounds"`
	AvgRatingSelected  float64          `json:"avgRatingSelected"`
	AvgRatingOther     float64          `json:"avgRatingOther"`
	KeyDifferentiators []string         `json:"keyDifferentiators"`
}

type ChartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type Charts struct {
	StatusDistribution ChartSeries `json:"statusDistribution"`
	RatingDistribution ChartSeries `json:"ratingDistribution"`
	RoundsFrequency    ChartSeries `json:"roundsFrequency"`
}

type Insights struct {
	CompanyName        string                         `json:"companyName"`
	AnalysisDate       string                         `json:"analysisDate"`
	OverallStats       OverallStats                   `json:"overallStats"`
	RoundsAnalysis     map[string]RoundAnalysis       `json:"roundsAnalysis"`
	DifficultyAnalysis map[string]RoundDifficulty     `json:"difficultyAnalysis"`
	TopQuestions       map[string][]QuestionFrequency `json:"topQuestions"`
	SuccessPatterns    SuccessPatterns                `json:"successPatterns"`
	PreparationTips    []string                       `json:"preparationTips"`
	Charts             Charts                         `json:"charts"`
}

func BuildInsights(companyName string, exps []model.Experience) Insights {
	return Insights{
		CompanyName:        companyName,
		AnalysisDate:       time.Now().UTC().Format(time.RFC3339),
		OverallStats:       GenerateOverallStats(exps),
		RoundsAnalysis:     GenerateRoundsAnalysis(exps),
		DifficultyAnalysis: GenerateDifficultyAnalysis(exps),
		TopQuestions:       GenerateTopQuestions(exps),
		SuccessPatterns:    GenerateSuccessPatterns(exps),
		PreparationTips:    GeneratePreparationTips(exps),
		Charts:             GenerateCharts(exps),
	}
}

func GenerateOverallStats(exps []model.Experience) OverallStats {
	stats := OverallStats{TotalExperiences: len(exps), TopJobRoles: map[string]int{}}
	if len(exps) == 0 {
		return stats
	}

	ratingSum := 0
	roleCounts := map[string]int{}
	for _, exp := range exps {
		switch exp.Status {
		case "Selected":
			stats.SelectedCount++
		case "Rejected":
			stats.RejectedCount++
		default:
			stats.PendingCount++
		}
		ratingSum += exp.OverallRating
		if exp.JobRole != "" {
			roleCounts[exp.JobRole]++
		}
	}

	stats.SuccessRate = round1(float64(stats.SelectedCount) / float64(len(exps)) * 100)
	stats.AverageRating = round1(float64(ratingSum) / float64(len(exps)))
	for _, tf := range topCounts(roleCounts, 5) {
		stats.TopJobRoles[tf.Topic] = tf.Frequency
	}
	return stats
}

func GenerateRoundsAnalysis(exps []model.Experience) map[string]RoundAnalysis {
	analysis := map[string]RoundAnalysis{}
	if len(exps) == 0 {
		return analysis
	}

	roundCounts := map[string]int{}
	for _, exp := range exps {
		for _, round := range exp.SelectedRounds {
			roundCounts[round]++
		}
	}

	for round, count := range roundCounts {
		analysis[round] = RoundAnalysis{
			Frequency:    count,
			Percentage:   round1(float64(count) / float64(len(exps)) * 100),
			Difficulty:   dominantDifficulty(exps, round),
			CommonTopics: commonTopics(exps, round),
		}
	}
	return analysis
}

func dominantDifficulty(exps []model.Experience, round string) string {
	counts := map[string]int{}
	for _, exp := range exps {
		if difficulty := stringField(exp.RoundsData[round], "difficulty"); difficulty != "" {
			counts[difficulty]++
		}
	}
	top := topCounts(counts, 1)
	if len(top) == 0 {
		return "Unknown"
	}
	return top[0].Topic
}

func commonTopics(exps []model.Experience, round string) []TopicFrequency {
	counts := map[string]int{}
	for _, exp := range exps {
		record := exp.RoundsData[round]
		switch round {
		case "technical":
			for _, topic := range stringSliceField(record, "focusTopics") {
				counts[topic]++
			}
		case "coding":
			for _, lang := range stringSliceField(record, "languagesUsed") {
				counts[lang]++
			}
		}
	}
	return topCounts(counts, 5)
}

func GenerateDifficultyAnalysis(exps []model.Experience) map[string]RoundDifficulty {
	perRound := map[string][]float64{}
	for _, exp := range exps {
		for round, record := range exp.RoundsData {
			difficulty := stringField(record, "difficulty")
			if difficulty == "" {
				continue
			}
			perRound[round] = append(perRound[round], difficultyScore(difficulty))
		}
	}

	analysis := map[string]RoundDifficulty{}
	for round, values := range perRound {
		avg := mean(values)
		analysis[round] = RoundDifficulty{
			AverageDifficulty: round1(avg),
			DifficultyLevel:   DifficultyLevel(avg),
		}
	}
	return analysis
}

func difficultyScore(difficulty string) float64 {
	switch difficulty {
	case "Easy":
		return 1
	case "Hard":
		return 3
	default:
		return 2
	}
}

// DifficultyLevel maps an averaged 1..3 score back onto a label.
func DifficultyLevel(score float64) string {
	switch {
	case score < 1.5:
		return "Easy"
	case score < 2.5:
		return "Medium"
	default:
		return "Hard"
	}
}

// GenerateTopQuestions ranks reported questions per round type by frequency.
// The original clustered near-duplicate questions with TF-IDF; frequency over
// normalized text keeps the contract without the ML dependency.
func GenerateTopQuestions(exps []model.Experience) map[string][]QuestionFrequency {
	fields := map[string]string{
		"aptitude":  "sampleQuestions",
		"coding":    "top3Questions",
		"technical": "top5Questions",
		"hr":        "topQuestions",
	}

	top := map[string][]QuestionFrequency{}
	for round, field := range fields {
		counts := map[string]int{}
		display := map[string]string{}
		for _, exp := range exps {
			for _, question := range questionList(exp.RoundsData[round], field) {
				normalized := normalizeText(question)
				if normalized == "" {
					continue
				}
				counts[normalized]++
				if _, ok := display[normalized]; !ok {
					display[normalized] = question
				}
			}
		}
		ranked := topCounts(counts, 5)
		if len(ranked) == 0 {
			continue
		}
		questions := make([]QuestionFrequency, 0, len(ranked))
		for _, tf := range ranked {
			questions = append(questions, QuestionFrequency{Question: display[tf.Topic], Frequency: tf.Frequency})
		}
		top[round] = questions
	}
	return top
}

func GenerateSuccessPatterns(exps []model.Experience) SuccessPatterns {
	patterns := SuccessPatterns{}
	roundCounts := map[string]int{}
	var selectedRatings, otherRatings []float64

	for _, exp := range exps {
		if exp.Status == "Selected" {
			selectedRatings = append(selectedRatings, float64(exp.OverallRating))
			for _, round := range exp.SelectedRounds {
				roundCounts[round]++
			}
		} else {
			otherRatings = append(otherRatings, float64(exp.OverallRating))
		}
	}

	patterns.CommonRounds = topCounts(roundCounts, 3)
	patterns.AvgRatingSelected = round1(mean(selectedRatings))
	patterns.AvgRatingOther = round1(mean(otherRatings))
	if patterns.AvgRatingSelected > patterns.AvgRatingOther && len(selectedRatings) > 0 && len(otherRatings) > 0 {
		patterns.KeyDifferentiators = append(patterns.KeyDifferentiators,
			"Selected candidates reported noticeably better interview experiences")
	}
	for _, tf := range patterns.CommonRounds {
		patterns.KeyDifferentiators = append(patterns.KeyDifferentiators,
			fmt.Sprintf("%s rounds appear in most successful interviews", tf.Topic))
	}
	return patterns
}

func GeneratePreparationTips(exps []model.Experience) []string {
	var tips []string
	analysis := GenerateRoundsAnalysis(exps)

	if ra, ok := analysis["coding"]; ok && ra.Frequency > 0 {
		tip := "Practice data structures and algorithm problems"
		if len(ra.CommonTopics) > 0 {
			tip = fmt.Sprintf("Practice coding problems, especially in %s", ra.CommonTopics[0].Topic)
		}
		tips = append(tips, tip)
	}
	if ra, ok := analysis["technical"]; ok && ra.Frequency > 0 {
		tip := "Revise core computer science fundamentals"
		if len(ra.CommonTopics) > 0 {
			tip = fmt.Sprintf("Focus technical preparation on %s", ra.CommonTopics[0].Topic)
		}
		tips = append(tips, tip)
	}
	if ra, ok := analysis["aptitude"]; ok && ra.Frequency > 0 {
		tips = append(tips, "Work on timed aptitude mocks; accuracy under pressure matters")
	}
	if ra, ok := analysis["hr"]; ok && ra.Frequency > 0 {
		tips = append(tips, "Prepare concise answers for common HR questions")
	}
	if ra, ok := analysis["group discussion"]; ok && ra.Frequency > 0 {
		tips = append(tips, "Follow current affairs and practise structuring group-discussion points")
	}
	return tips
}

func GenerateCharts(exps []model.Experience) Charts {
	charts := Charts{}

	statusCounts := map[string]int{}
	ratingCounts := map[string]int{}
	roundCounts := map[string]int{}
	for _, exp := range exps {
		statusCounts[exp.Status]++
		ratingCounts[fmt.Sprintf("%d", exp.OverallRating)]++
		for _, round := range exp.SelectedRounds {
			roundCounts[round]++
		}
	}

	for _, status := range []string{"Selected", "Rejected", "Pending"} {
		charts.StatusDistribution.Labels = append(charts.StatusDistribution.Labels, status)
		charts.StatusDistribution.Values = append(charts.StatusDistribution.Values, float64(statusCounts[status]))
	}
	for rating := 1; rating <= 5; rating++ {
		label := fmt.Sprintf("%d", rating)
		charts.RatingDistribution.Labels = append(charts.RatingDistribution.Labels, label)
		charts.RatingDistribution.Values = append(charts.RatingDistribution.Values, float64(ratingCounts[label]))
	}
	for _, tf := range topCounts(roundCounts, 10) {
		charts.RoundsFrequency.Labels = append(charts.RoundsFrequency.Labels, tf.Topic)
		charts.RoundsFrequency.Values = append(charts.RoundsFrequency.Values, float64(tf.Frequency))
	}
	return charts
}

// helpers

func stringField(record map[string]interface{}, field string) string {
	if record == nil {
		return ""
	}
	value, _ := record[field].(string)
	return value
}

func stringSliceField(record map[string]interface{}, field string) []string {
	if record == nil {
		return nil
	}
	raw, ok := record[field].([]interface{})
	if !ok {
		return nil
	}
	var values []string
	for _, item := range raw {
		if value, ok := item.(string); ok && value != "" {
			values = append(values, value)
		}
	}
	return values
}

func questionList(record map[string]interface{}, field string) []string {
	if record == nil {
		return nil
	}
	raw, ok := record[field].([]interface{})
	if !ok {
		return nil
	}
	var questions []string
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if question, ok := entry["question"].(string); ok && strings.TrimSpace(question) != "" {
			questions = append(questions, strings.TrimSpace(question))
		}
	}
	return questions
}

func topCounts(counts map[string]int, n int) []TopicFrequency {
	ranked := make([]TopicFrequency, 0, len(counts))
	for topic, count := range counts {
		ranked = append(ranked, TopicFrequency{Topic: topic, Frequency: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Frequency != ranked[j].Frequency {
			return ranked[i].Frequency > ranked[j].Frequency
		}
		return ranked[i].Topic < ranked[j].Topic
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values))
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
