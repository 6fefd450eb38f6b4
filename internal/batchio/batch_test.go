package batchio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrdcore/rpslvalidate/internal/rpsl"
	"github.com/irrdcore/rpslvalidate/internal/validation"
)

func TestDecodeBatchBuildsChangeRequests(t *testing.T) {
	raw := []byte(`{
		"requests": [
			{
				"type": "create",
				"new": {
					"class": "route",
					"pk": "192.0.2.0/24",
					"source": "TEST",
					"attributes": {"mnt-by": ["MNT-A"], "origin": ["AS65000"]},
					"text": "route: 192.0.2.0/24"
				}
			}
		],
		"credentials": {
			"passwords": ["hunter2"],
			"origin": "api",
			"remote_ip": "203.0.113.5"
		}
	}`)

	requests, creds, err := DecodeBatch(raw)
	require.NoError(t, err)
	require.Len(t, requests, 1)

	req := requests[0]
	assert.Equal(t, rpsl.Create, req.Type)
	assert.Equal(t, rpsl.ClassRoute, req.New.Class())
	assert.Equal(t, "192.0.2.0/24", req.New.PK())
	assert.Nil(t, req.Current)

	assert.Equal(t, []string{"hunter2"}, creds.Passwords)
	assert.Equal(t, rpsl.OriginAPI, creds.Origin)
	assert.True(t, creds.RemoteIP.IsValid())
}

func TestDecodeBatchRejectsUnknownRequestType(t *testing.T) {
	raw := []byte(`{"requests": [{"type": "destroy", "new": {"class": "route", "pk": "x", "source": "TEST"}}]}`)
	_, _, err := DecodeBatch(raw)
	assert.Error(t, err)
}

func TestDecodeBatchBuildsMntnerAuth(t *testing.T) {
	raw := []byte(`{
		"requests": [
			{
				"type": "modify",
				"new": {"class": "mntner", "pk": "MNT-A", "source": "TEST", "auth": ["BCRYPT-PW abc"]},
				"current": {"class": "mntner", "pk": "MNT-A", "source": "TEST", "auth": ["BCRYPT-PW abc"]}
			}
		]
	}`)

	requests, _, err := DecodeBatch(raw)
	require.NoError(t, err)
	mntner, ok := requests[0].New.(*rpsl.GenericMntner)
	require.True(t, ok)
	assert.Equal(t, []string{"BCRYPT-PW abc"}, mntner.AuthLines())
}

func TestDecodeBatchRejectsOversizedPassword(t *testing.T) {
	overlong := strings.Repeat("a", 4097)
	raw := []byte(`{
		"requests": [
			{"type": "create", "new": {"class": "route", "pk": "192.0.2.0/24", "source": "TEST"}}
		],
		"credentials": {"passwords": ["` + overlong + `"]}
	}`)

	_, _, err := DecodeBatch(raw)
	assert.Error(t, err)
}

func TestEncodeResultsRendersValidity(t *testing.T) {
	obj := rpsl.NewGenericObject(rpsl.ClassRoute, "192.0.2.0/24", "TEST", nil, "")
	result := validation.NewValidatorResult()
	result.AddError("reference missing")

	out, err := EncodeResults([]validation.RequestResult{
		{Request: rpsl.ChangeRequest{Type: rpsl.Create, New: obj}, Result: result},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"valid": false`)
	assert.Contains(t, string(out), "reference missing")
}
