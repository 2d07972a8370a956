package standardizer

import (
	"fmt"

	"golang-fact-standardizer/internal/models"
)

// Statistics holds the missing-value counts of the final tags at every stage
// of a run.
type Statistics struct {
	Rows       int             `json:"rows" yaml:"rows"`
	Iterations int             `json:"iterations" yaml:"iterations"`
	Tags       []TagStatistics `json:"tags" yaml:"tags"`
}

// TagStatistics are the missing counts of one final tag
type TagStatistics struct {
	Tag     string `json:"tag" yaml:"tag"`
	Pre     int    `json:"pre" yaml:"pre"`
	Post    []int  `json:"post" yaml:"post"`
	Cleanup int    `json:"cleanup" yaml:"cleanup"`
}

func newStatistics(rows int, tags []string, iterations int) *Statistics {
	s := &Statistics{Rows: rows, Iterations: iterations, Tags: make([]TagStatistics, len(tags))}
	for i, tag := range tags {
		s.Tags[i] = TagStatistics{Tag: tag, Post: make([]int, iterations)}
	}
	return s
}

func (s *Statistics) recordPre(table *models.Table) {
	for i := range s.Tags {
		s.Tags[i].Pre = table.MissingCount(s.Tags[i].Tag)
	}
}

func (s *Statistics) recordPost(iteration int, table *models.Table) {
	for i := range s.Tags {
		s.Tags[i].Post[iteration] = table.MissingCount(s.Tags[i].Tag)
	}
}

func (s *Statistics) recordCleanup(table *models.Table) {
	for i := range s.Tags {
		s.Tags[i].Cleanup = table.MissingCount(s.Tags[i].Tag)
	}
}

// Relative returns count as a share of the row count
func (s *Statistics) Relative(count int) float64 {
	if s.Rows == 0 {
		return 0
	}
	return float64(count) / float64(s.Rows)
}

// Reduction returns 1 - post/pre, the share of the initially missing values
// that got filled. It is 0 when nothing was missing to begin with.
func Reduction(pre, post int) float64 {
	if pre == 0 {
		return 0
	}
	return 1 - float64(post)/float64(pre)
}

// Columns returns the statistics column names:
// pre, post_i, post_i_rel, post_i_red per iteration, cleanup, cleanup_rel, cleanup_red.
func (s *Statistics) Columns() []string {
	columns := []string{"pre"}
	for i := 0; i < s.Iterations; i++ {
		columns = append(columns,
			fmt.Sprintf("post_%d", i),
			fmt.Sprintf("post_%d_rel", i),
			fmt.Sprintf("post_%d_red", i))
	}
	return append(columns, "cleanup", "cleanup_rel", "cleanup_red")
}

// Values returns the statistics of ts aligned with Columns
func (s *Statistics) Values(ts TagStatistics) []float64 {
	values := []float64{float64(ts.Pre)}
	for _, post := range ts.Post {
		values = append(values, float64(post), s.Relative(post), Reduction(ts.Pre, post))
	}
	return append(values, float64(ts.Cleanup), s.Relative(ts.Cleanup), Reduction(ts.Pre, ts.Cleanup))
}

// Tag returns the statistics of tag
func (s *Statistics) Tag(tag string) (TagStatistics, bool) {
	for _, ts := range s.Tags {
		if ts.Tag == tag {
			return ts, true
		}
	}
	return TagStatistics{}, false
}
