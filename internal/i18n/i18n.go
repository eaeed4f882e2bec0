// Package i18n holds the user-facing messages of the CLI in English and
// Russian. Message keys are the English text.
package i18n

import (
	"context"
	"errors"
	"strings"

	"github.com/futurecareers/contestide/internal/apiclient"
	"github.com/futurecareers/contestide/internal/contest"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	MsgNetwork         = "The server is unreachable. Check your connection and try again."
	MsgUnauthorized    = "You are not logged in or your session has expired. Run \"contestide login\"."
	MsgNotFound        = "Not found."
	MsgTimeout         = "The execution did not finish in time. The result may still appear later."
	MsgLaneBusy        = "An execution for this task is already running."
	MsgLanguageLocked  = "The contest language is locked and cannot be changed."
	MsgHintUsed        = "This hint was already used. Nothing was charged."
	MsgSubmitTests     = "Could not prepare the tests for submit. Nothing was sent."
	MsgExecutionFailed = "The execution failed."
	MsgNoContest       = "No contest is open. Run \"contestide contest open <id>\"."
	MsgEmptyCatalog    = "This contest has no tasks."
	MsgUnknownTask     = "This task is not part of the contest."
	MsgNoThread        = "There is no clarification question for this task yet."
	MsgThreadClosed    = "This question has already been answered."
	MsgEmptyAnswer     = "The answer is empty."
	MsgCanceled        = "Canceled."

	MsgAccepted        = "Accepted"
	MsgRejected        = "Not accepted"
	MsgContestFinished = "All tasks are solved. The contest is finished."
	MsgSolved          = "Solved %d of %d"
	MsgMaxScore        = "Max score %d (hint penalty %d)"
	MsgQuestion        = "Clarification question"
	MsgAnswerSent      = "Answer sent. It is being evaluated."
)

var russian = map[string]string{
	MsgNetwork:         "Сервер недоступен. Проверьте подключение и повторите попытку.",
	MsgUnauthorized:    "Вы не вошли в систему или сессия истекла. Выполните \"contestide login\".",
	MsgNotFound:        "Не найдено.",
	MsgTimeout:         "Выполнение не завершилось вовремя. Результат может появиться позже.",
	MsgLaneBusy:        "Для этой задачи уже идёт выполнение.",
	MsgLanguageLocked:  "Язык контеста зафиксирован и не может быть изменён.",
	MsgHintUsed:        "Эта подсказка уже использована. Штраф не начислен.",
	MsgSubmitTests:     "Не удалось подготовить тесты для отправки. Решение не отправлено.",
	MsgExecutionFailed: "Выполнение завершилось ошибкой.",
	MsgNoContest:       "Контест не открыт. Выполните \"contestide contest open <id>\".",
	MsgEmptyCatalog:    "В этом контесте нет задач.",
	MsgUnknownTask:     "Эта задача не входит в контест.",
	MsgNoThread:        "Уточняющего вопроса по этой задаче пока нет.",
	MsgThreadClosed:    "На этот вопрос уже дан ответ.",
	MsgEmptyAnswer:     "Ответ пустой.",
	MsgCanceled:        "Отменено.",

	MsgAccepted:        "Принято",
	MsgRejected:        "Не принято",
	MsgContestFinished: "Все задачи решены. Контест завершён.",
	MsgSolved:          "Решено %d из %d",
	MsgMaxScore:        "Максимальный балл %d (штраф за подсказки %d)",
	MsgQuestion:        "Уточняющий вопрос",
	MsgAnswerSent:      "Ответ отправлен и оценивается.",
}

var supported = []language.Tag{language.English, language.Russian}

func init() {
	for key, msg := range russian {
		if err := message.SetString(language.Russian, key, msg); err != nil {
			panic(err)
		}
	}
}

// Printer returns a printer for a locale such as "ru" or "en-US". Unknown
// locales get English.
func Printer(locale string) *message.Printer {
	return message.NewPrinter(Tag(locale))
}

// Tag resolves a locale to a supported language.
func Tag(locale string) language.Tag {
	if locale == "" {
		return language.English
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	_, i, _ := language.NewMatcher(supported).Match(tag)
	return supported[i]
}

// Describe turns an error into a message for the candidate. Validation and
// refusal details from the server are shown verbatim. Transport failures
// get a generic message.
func Describe(p *message.Printer, err error) string {
	if err == nil {
		return ""
	}

	for _, m := range []struct {
		target error
		msg    string
	}{
		{contest.ErrNoContest, MsgNoContest},
		{contest.ErrEmptyCatalog, MsgEmptyCatalog},
		{contest.ErrUnknownTask, MsgUnknownTask},
		{contest.ErrLanguageLocked, MsgLanguageLocked},
		{contest.ErrLaneBusy, MsgLaneBusy},
		{contest.ErrSubmitTestsUnavailable, MsgSubmitTests},
		{contest.ErrTimeout, MsgTimeout},
		{contest.ErrHintAlreadyUsed, MsgHintUsed},
		{contest.ErrNoThread, MsgNoThread},
		{contest.ErrThreadClosed, MsgThreadClosed},
		{contest.ErrEmptyAnswer, MsgEmptyAnswer},
		{apiclient.ErrUnauthorized, MsgUnauthorized},
		{context.Canceled, MsgCanceled},
	} {
		if errors.Is(err, m.target) {
			return p.Sprintf(m.msg)
		}
	}

	var (
		verr *apiclient.ValidationError
		rerr *apiclient.RefusalError
		terr *apiclient.TransportError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Detail
	case errors.As(err, &rerr):
		return rerr.Detail
	case errors.Is(err, apiclient.ErrNotFound):
		return p.Sprintf(MsgNotFound)
	case errors.As(err, &terr), errors.Is(err, context.DeadlineExceeded):
		return p.Sprintf(MsgNetwork)
	case errors.Is(err, contest.ErrExecutionFailed):
		detail := strings.TrimPrefix(err.Error(), contest.ErrExecutionFailed.Error()+": ")
		return p.Sprintf(MsgExecutionFailed) + " " + detail
	}
	return err.Error()
}
