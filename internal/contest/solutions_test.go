package contest

import (
	"context"
	"errors"
	"testing"

	"github.com/futurecareers/contestide/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func strPtr(s string) *string { return &s }

func TestSolutionCache_TemplateThenLiveCopySurvivesReentry(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().LastSolution(gomock.Any(), gomock.Any(), "c1").Return(nil, nil).Times(3)

	c := NewSolutionCache(m, nil, "c1", models.LanguagePython, quietLogger())
	ctx := context.Background()

	st, err := c.EnterTask(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, FromTemplate, st.Origin)
	assert.Equal(t, models.LanguagePython.Template(), st.Source)

	require.NoError(t, c.Edit("A", "print(input())"))

	_, err = c.EnterTask(ctx, "B")
	require.NoError(t, err)

	st, err = c.EnterTask(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, FromLive, st.Origin)
	assert.Equal(t, "print(input())", st.Source)
}

func TestSolutionCache_ServerCopyOverwritesLive(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	gomock.InOrder(
		m.EXPECT().LastSolution(gomock.Any(), "A", "c1").Return(nil, nil),
		m.EXPECT().LastSolution(gomock.Any(), "A", "c1").Return(&models.LastSolution{
			SolutionCode: strPtr("graded()"),
			Language:     "Python 3",
			Verdict:      models.VerdictAccepted,
			ML:           &models.MLMeta{Feedback: "tidy"},
		}, nil),
	)

	c := NewSolutionCache(m, nil, "c1", models.LanguagePython, quietLogger())
	ctx := context.Background()

	_, err := c.EnterTask(ctx, "A")
	require.NoError(t, err)
	require.NoError(t, c.Edit("A", "draft()"))

	st, err := c.EnterTask(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, FromServer, st.Origin)
	assert.Equal(t, "graded()", st.Source)
	require.NotNil(t, st.Server)
	assert.Equal(t, models.VerdictAccepted, st.Server.LastGradedVerdict)
	assert.Equal(t, "tidy", st.Server.MLFeedback)

	src, ok := c.Source("A")
	require.True(t, ok)
	assert.Equal(t, "graded()", src)
}

func TestSolutionCache_ServerLanguageRelocks(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().LastSolution(gomock.Any(), "A", "c1").Return(&models.LastSolution{
		SolutionCode: strPtr("class Solution {}"),
		Language:     "java",
	}, nil)
	m.EXPECT().LastSolution(gomock.Any(), "B", "c1").Return(nil, nil)

	var locked []models.Language
	c := NewSolutionCache(m, nil, "c1", models.LanguagePython, quietLogger())
	c.OnServerLanguage(func(lang models.Language) error {
		locked = append(locked, lang)
		return nil
	})

	st, err := c.EnterTask(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, FromServer, st.Origin)
	assert.Equal(t, "class Solution {}", st.Source)
	assert.Equal(t, models.LanguageJava, st.Language)
	assert.Equal(t, []models.Language{models.LanguageJava}, locked)

	st, err = c.EnterTask(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, models.LanguageJava, st.Language)
	assert.Equal(t, models.LanguageJava.Template(), st.Source)
}

func TestSolutionCache_RefusedRelockKeepsLocalText(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().LastSolution(gomock.Any(), "A", "c1").Return(&models.LastSolution{
		SolutionCode: strPtr("class Solution {}"),
		Language:     "java",
	}, nil)

	c := NewSolutionCache(m, nil, "c1", models.LanguagePython, quietLogger())
	c.OnServerLanguage(func(models.Language) error { return ErrLanguageLocked })

	st, err := c.EnterTask(context.Background(), "A")
	require.ErrorIs(t, err, ErrLanguageLocked)
	assert.Equal(t, FromTemplate, st.Origin)
	assert.Equal(t, models.LanguagePython, st.Language)
	assert.Equal(t, models.LanguagePython.Template(), st.Source)
	require.NotNil(t, st.Server)
	assert.Equal(t, models.LanguageJava, st.Server.Language)
}

func TestSolutionCache_StoreMirrorsLiveCopies(t *testing.T) {
	store := newMemLiveStore()

	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().LastSolution(gomock.Any(), "A", "c1").Return(nil, nil).Times(2)

	first := NewSolutionCache(m, store, "c1", models.LanguageGo, quietLogger())
	_, err := first.EnterTask(context.Background(), "A")
	require.NoError(t, err)
	require.NoError(t, first.Edit("A", "package main // edited"))

	second := NewSolutionCache(m, store, "c1", models.LanguageGo, quietLogger())
	st, err := second.EnterTask(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, FromStore, st.Origin)
	assert.Equal(t, "package main // edited", st.Source)
}

func TestSolutionCache_FetchErrorFallsBackToLocal(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().LastSolution(gomock.Any(), "A", "c1").Return(nil, errors.New("connection refused"))

	c := NewSolutionCache(m, nil, "c1", models.LanguageTypeScript, quietLogger())
	st, err := c.EnterTask(context.Background(), "A")

	require.Error(t, err)
	assert.Equal(t, FromTemplate, st.Origin)
	assert.Equal(t, models.LanguageTypeScript.Template(), st.Source)
}

func TestSolutionCache_RefreshMetaLeavesLiveCopy(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().LastSolution(gomock.Any(), "A", "c1").Return(&models.LastSolution{
		SolutionCode: strPtr("old()"),
		Verdict:      models.VerdictWrongAnswer,
	}, nil)

	c := NewSolutionCache(m, nil, "c1", models.LanguagePython, quietLogger())
	require.NoError(t, c.Edit("A", "mine()"))

	rec, err := c.RefreshMeta(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictWrongAnswer, rec.LastGradedVerdict)

	src, _ := c.Source("A")
	assert.Equal(t, "mine()", src)
	srv, ok := c.Server("A")
	require.True(t, ok)
	assert.Equal(t, "old()", srv.SourceText)
}

func TestSolutionCache_EditRequiresTask(t *testing.T) {
	c := NewSolutionCache(nil, nil, "c1", models.LanguagePython, quietLogger())
	assert.Error(t, c.Edit("", "x"))
}
