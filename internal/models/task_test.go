package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitTestsCombined(t *testing.T) {
	st := SubmitTests{
		OpenTests:   []TestCase{{Input: "1", Output: "1"}},
		HiddenTests: []TestCase{{Input: "2", Output: "4"}, {Input: "3", Output: "9"}},
	}
	combined := st.Combined()
	require.Len(t, combined, 3)
	assert.Equal(t, "1", combined[0].Input)
	assert.Equal(t, "3", combined[2].Input)
}

func TestWorkItemVariants(t *testing.T) {
	task := TaskItem(Task{ID: "t1", Title: "Two Sum", Description: "# Two Sum"})
	assert.Equal(t, WorkItemContestTask, task.Kind)
	assert.Equal(t, "t1", task.ID())
	assert.Equal(t, "Two Sum", task.Title())
	assert.Equal(t, "# Two Sum", task.Body())

	q := QuestionItem(SurveyQuestion{ID: "q1", Text: "Why us?", Order: 2})
	assert.Equal(t, WorkItemSurveyQuestion, q.Kind)
	assert.Equal(t, "q1", q.ID())
	assert.Equal(t, "Question 2", q.Title())
	assert.Equal(t, "Why us?", q.Body())

	assert.Equal(t, "", WorkItem{}.ID())
}

func TestTaskNeverCarriesHiddenTests(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t1","title":"x","open_tests":[{"input":"1","output":"2"}],"hidden_tests":[{"input":"secret","output":"x"}]}`), &task))
	assert.False(t, task.HiddenTestsVisible())
	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}

func TestLastSolutionRecord(t *testing.T) {
	code := "print(42)"
	ls := &LastSolution{
		SolutionCode: &code,
		Language:     "Python",
		Verdict:      VerdictAccepted,
		ML:           &MLMeta{Feedback: "clean"},
	}
	assert.True(t, ls.HasCode())
	rec := ls.Record("t1")
	assert.Equal(t, "t1", rec.TaskID)
	assert.Equal(t, code, rec.SourceText)
	assert.Equal(t, LanguagePython, rec.Language)
	assert.Equal(t, "clean", rec.MLFeedback)

	var empty *LastSolution
	assert.False(t, empty.HasCode())
}

func TestTimestampFormats(t *testing.T) {
	for _, in := range []string{`"2025-01-02T03:04:05Z"`, `"2025-01-02T03:04:05.123456"`, `"2025-01-02 03:04:05"`} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(in), &ts), in)
		assert.Equal(t, 2025, ts.Year())
		assert.Equal(t, 3, ts.Hour())
	}

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))

	out, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
