package consumer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadValidator(t *testing.T) {
	validator, err := NewPayloadValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload string
		wantOK  bool
	}{
		{
			name:    "minimal valid",
			payload: `{"dependent":{"name":"Alva","birth_date":"2016-03-14"}}`,
			wantOK:  true,
		},
		{
			name: "full valid",
			payload: `{
				"dependent":{"name":"Alva","birth_date":"2016-03-14"},
				"work_relationships":[{"org_number":"987654321","periods":[{"from":"2021-08-01","to":"2021-09-24","actual_hours":4.0,"normal_hours":8.0}]}]
			}`,
			wantOK: true,
		},
		{
			name:    "missing dependent",
			payload: `{"language":"nb"}`,
			wantOK:  false,
		},
		{
			name:    "empty dependent name",
			payload: `{"dependent":{"name":"","birth_date":"2016-03-14"}}`,
			wantOK:  false,
		},
		{
			name:    "relationship without org number",
			payload: `{"dependent":{"name":"Alva"},"work_relationships":[{"org_number":""}]}`,
			wantOK:  false,
		},
		{
			name:    "period ends before it starts",
			payload: `{"dependent":{"name":"Alva"},"work_relationships":[{"org_number":"987654321","periods":[{"from":"2021-09-24","to":"2021-08-01","actual_hours":4.0,"normal_hours":8.0}]}]}`,
			wantOK:  false,
		},
		{
			name:    "overtime is valid",
			payload: `{"dependent":{"name":"Alva"},"work_relationships":[{"org_number":"987654321","periods":[{"from":"2021-08-01","to":"2021-09-24","actual_hours":9.0,"normal_hours":8.0}]}]}`,
			wantOK:  true,
		},
		{
			name:    "negative actual hours",
			payload: `{"dependent":{"name":"Alva"},"work_relationships":[{"org_number":"987654321","periods":[{"from":"2021-08-01","to":"2021-09-24","actual_hours":-1.0,"normal_hours":8.0}]}]}`,
			wantOK:  false,
		},
		{
			name:    "negative normal hours",
			payload: `{"dependent":{"name":"Alva"},"work_relationships":[{"org_number":"987654321","periods":[{"from":"2021-08-01","to":"2021-09-24","actual_hours":4.0,"normal_hours":-8.0}]}]}`,
			wantOK:  false,
		},
		{
			name:    "not json",
			payload: `{{{`,
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate([]byte(tt.payload))
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, KindMalformed, Classify(err))
			}
		})
	}
}
