package parse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  time.Time
		valid bool
	}{
		{"date", "2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"datetime-local", "2024-05-01T09:30", time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), true},
		{"space separator", "2024-05-01 09:30:15", time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC), true},
		{"offset converted to utc", "2024-05-01T09:30:00+02:00", time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC), true},
		{"zulu", "2024-05-01T09:30:00Z", time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), true},
		{"blank", "   ", time.Time{}, false},
		{"garbage", "next tuesday", time.Time{}, false},
		{"bad month", "2024-13-01", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Time(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.True(t, tt.want.Equal(got), "got %v", got)
			}
		})
	}
}

func TestFloatAndInt(t *testing.T) {
	f, ok := Float(" 1250.50 ")
	require.True(t, ok)
	assert.Equal(t, 1250.5, f)

	_, ok = Float("lots")
	assert.False(t, ok)
	_, ok = Float("NaN")
	assert.False(t, ok)

	i, ok := Int("42")
	require.True(t, ok)
	assert.Equal(t, int64(42), i)

	_, ok = Int("4.2")
	assert.False(t, ok)
	_, ok = Int("")
	assert.False(t, ok)
}

func TestOptionalJSON(t *testing.T) {
	var req struct {
		Budget    OptionalFloat `json:"budget"`
		ProjectID OptionalInt   `json:"project_id"`
		DueDate   OptionalTime  `json:"due_date"`
		ContactID OptionalInt   `json:"contact_id"`
	}

	body := `{"budget":"not a number","project_id":"12","due_date":"2024-02-30","contact_id":null}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.False(t, req.Budget.Valid, "unparseable float degrades to absent")
	assert.Equal(t, OptionalInt{Value: 12, Valid: true}, req.ProjectID)
	assert.False(t, req.DueDate.Valid)
	assert.Nil(t, req.ContactID.Ptr())

	body = `{"budget":1500,"project_id":3,"due_date":"2024-02-28T10:00"}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.NotNil(t, req.Budget.Ptr())
	assert.Equal(t, 1500.0, *req.Budget.Ptr())
	assert.Equal(t, int64(3), *req.ProjectID.Ptr())
	assert.True(t, req.DueDate.Valid)
}

func TestOptionalMarshal(t *testing.T) {
	out, err := json.Marshal(struct {
		A OptionalInt   `json:"a"`
		B OptionalFloat `json:"b"`
	}{A: OptionalInt{Value: 5, Valid: true}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":5,"b":null}`, string(out))
}

func TestUnmarshalParam(t *testing.T) {
	var id OptionalInt
	require.NoError(t, id.UnmarshalParam("abc"))
	assert.False(t, id.Valid)
	require.NoError(t, id.UnmarshalParam("9"))
	assert.Equal(t, int64(9), id.Value)
}
