package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/hydrosite/internal/apiclient"
	"github.com/bigkaa/hydrosite/internal/domain/model"
)

func TestPrepare_RequiredFields(t *testing.T) {
	draft := Forms.DefaultDraft()
	draft.Fields["description"] = "HR leave form"

	_, err := Forms.Prepare(draft, true)
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apiclient.KindValidation, apiErr.Kind)
	assert.Equal(t, map[string]string{
		"name":     CodeRequired,
		"category": CodeRequired,
		"file":     CodeRequired,
	}, apiErr.Fields)
}

func TestPrepare_FileOptionalOnUpdate(t *testing.T) {
	draft := model.NewDraft()
	draft.Fields["name"] = "Leave Request"
	draft.Fields["description"] = "HR leave form"
	draft.Fields["category"] = "Finance"

	payload, err := Forms.Prepare(draft, false)
	require.NoError(t, err)
	assert.Nil(t, payload.Attachment)
	assert.Equal(t, map[string]any{
		"name":        "Leave Request",
		"description": "HR leave form",
		"category":    "Finance",
	}, payload.Fields)
}

func TestPrepare_Coercion(t *testing.T) {
	draft := Projects.DefaultDraft()
	draft.Fields["title"] = "  Плотина  "
	draft.Fields["description"] = "Бетонная"
	draft.Fields["progress"] = "55.5"

	payload, err := Projects.Prepare(draft, true)
	require.NoError(t, err)
	assert.Equal(t, "Плотина", payload.Fields["title"])
	assert.Equal(t, 55.5, payload.Fields["progress"])
	assert.Equal(t, "planned", payload.Fields["status"])
	assert.Equal(t, "", payload.Fields["startDate"], "пустые строковые поля отправляются пустыми")

	draft.Fields["progress"] = ""
	payload, err = Projects.Prepare(draft, true)
	require.NoError(t, err)
	assert.NotContains(t, payload.Fields, "progress")
}

func TestPrepare_ClientDoesNotCheckRanges(t *testing.T) {
	draft := Projects.DefaultDraft()
	draft.Fields["title"] = "t"
	draft.Fields["description"] = "d"
	draft.Fields["progress"] = "140"
	draft.Fields["startDate"] = "вчера"

	_, err := Projects.Prepare(draft, true)
	assert.NoError(t, err)
}

func TestPrepare_Bool(t *testing.T) {
	draft := Marquee.DefaultDraft()
	draft.Fields["text"] = "Объявление"

	payload, err := Marquee.Prepare(draft, true)
	require.NoError(t, err)
	assert.Equal(t, true, payload.Fields["active"])

	draft.Fields["active"] = ""
	payload, err = Marquee.Prepare(draft, true)
	require.NoError(t, err)
	assert.Equal(t, false, payload.Fields["active"])
}

func TestRequestSchema(t *testing.T) {
	tests := []struct {
		name     string
		creating bool
		doc      map[string]any
		want     map[string]string
	}{
		{
			name:     "валидное создание",
			creating: true,
			doc:      map[string]any{"title": "t", "description": "d", "progress": 50.0, "startDate": "2024-01-01"},
			want:     map[string]string{},
		},
		{
			name:     "обязательные при создании",
			creating: true,
			doc:      map[string]any{"title": ""},
			want:     map[string]string{"title": CodeRequired, "description": CodeRequired},
		},
		{
			name:     "изменение без обязательных",
			creating: false,
			doc:      map[string]any{"status": "completed"},
			want:     map[string]string{},
		},
		{
			name:     "диапазон",
			creating: false,
			doc:      map[string]any{"progress": 101.0},
			want:     map[string]string{"progress": CodeRange},
		},
		{
			name:     "тип",
			creating: false,
			doc:      map[string]any{"progress": "много"},
			want:     map[string]string{"progress": CodeType},
		},
		{
			name:     "формат даты",
			creating: false,
			doc:      map[string]any{"endDate": "15.12.2023"},
			want:     map[string]string{"endDate": CodeFormat},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(Projects.RequestSchema(tt.creating), tt.doc)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerce_KeepsUnknown(t *testing.T) {
	fields, errs := FAQs.Coerce(map[string]string{"question": "q", "order": "x", "extra": "1"})
	assert.Equal(t, map[string]string{"order": CodeType}, errs)
	assert.Equal(t, "q", fields["question"])
	assert.Equal(t, "1", fields["extra"])
	assert.NotContains(t, fields, "answer", "отсутствующие поля multipart не добавляются")
}

func TestMatches(t *testing.T) {
	fields := map[string]string{"question": "Как подать ЗАЯВКУ?", "answer": "Онлайн"}
	assert.True(t, FAQs.Matches(fields, "заявку"))
	assert.True(t, FAQs.Matches(fields, "  "))
	assert.False(t, FAQs.Matches(fields, "турбина"))
}

func TestItemSchema_AcceptsBackendItem(t *testing.T) {
	item := map[string]any{
		"_id":       "abc",
		"name":      "Leave Request",
		"fileUrl":   "/uploads/x.pdf",
		"fileSize":  12.0,
		"downloads": 3.0,
		"createdAt": "2024-05-01T10:00:00Z",
	}
	assert.Empty(t, Validate(Forms.ItemSchema(), item))
	assert.Equal(t, map[string]string{"_id": CodeRequired}, Validate(Forms.ItemSchema(), map[string]any{"name": "x"}))
}

func TestLookup(t *testing.T) {
	d, ok := Lookup("gallery")
	require.True(t, ok)
	assert.True(t, d.FileRequired)

	_, ok = Lookup("users")
	assert.False(t, ok)
}
