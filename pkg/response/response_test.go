package response

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFail_IncludesErrorDetail(t *testing.T) {
	b, err := json.Marshal(Fail("Failed to get content", errors.New("db down")))
	require.NoError(t, err)
	require.JSONEq(t, `{"success":false,"message":"Failed to get content","error":"db down"}`, string(b))
}

func TestFail_NilError(t *testing.T) {
	b, err := json.Marshal(Fail("Invalid credentials", nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"success":false,"message":"Invalid credentials"}`, string(b))
}

func TestOKT(t *testing.T) {
	b, err := json.Marshal(OKT(map[string]string{"status": "ok"}))
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, string(b))
}
