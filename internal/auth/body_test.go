package auth

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "reference body", body: testBody},
		{
			name: "with acp_type",
			body: `{"data":{"type":"claim_event","attributes":{"request_uuid":"0x1","request_type":1,"pk160":"0x2","acp_type":0}}}`,
		},
		{
			name: "with id",
			body: `{"data":{"id":"1","type":"claim_event","attributes":{"request_uuid":"0x1","request_type":1,"pk160":"0x2"}}}`,
		},
		{
			name:    "extra attribute",
			body:    `{"data":{"type":"claim_event","attributes":{"request_uuid":"0x1","request_type":1,"pk160":"0x2","amount":5}}}`,
			wantErr: true,
		},
		{
			name:    "missing attribute",
			body:    `{"data":{"type":"claim_event","attributes":{"request_uuid":"0x1","pk160":"0x2"}}}`,
			wantErr: true,
		},
		{
			name:    "acp_type without required set",
			body:    `{"data":{"type":"claim_event","attributes":{"request_uuid":"0x1","acp_type":0,"pk160":"0x2"}}}`,
			wantErr: true,
		},
		{
			name:    "wrong type",
			body:    `{"data":{"type":"claim","attributes":{"request_uuid":"0x1","request_type":1,"pk160":"0x2"}}}`,
			wantErr: true,
		},
		{
			name:    "missing type",
			body:    `{"data":{"attributes":{"request_uuid":"0x1","request_type":1,"pk160":"0x2"}}}`,
			wantErr: true,
		},
		{
			name:    "extra data member",
			body:    `{"data":{"type":"claim_event","links":{},"attributes":{"request_uuid":"0x1","request_type":1,"pk160":"0x2"}}}`,
			wantErr: true,
		},
		{
			name:    "extra top level key",
			body:    `{"meta":{},"data":{"type":"claim_event","attributes":{"request_uuid":"0x1","request_type":1,"pk160":"0x2"}}}`,
			wantErr: true,
		},
		{name: "missing data", body: `{"attributes":{}}`, wantErr: true},
		{name: "data not object", body: `{"data":[]}`, wantErr: true},
		{name: "data null", body: `{"data":null}`, wantErr: true},
		{name: "attributes not object", body: `{"data":{"type":"claim_event","attributes":"x"}}`, wantErr: true},
		{name: "not json", body: `data=1`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
		{name: "array root", body: `[]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBody(bytes.NewReader([]byte(tt.body)))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrRequestBodyInvalid)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateBody_RestoresReadPosition(t *testing.T) {
	body := bytes.NewReader([]byte(testBody))

	require.NoError(t, ValidateBody(body))

	rest, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, testBody, string(rest))
}
