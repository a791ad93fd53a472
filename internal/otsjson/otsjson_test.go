package otsjson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateWhitelistOK(t *testing.T) {
	raw := []byte(`{"calendars":[{"url":"https://alice.btc.calendar.opentimestamps.org","trusted":true}]}`)
	require.NoError(t, ValidateWhitelist(raw))
}

func TestValidateWhitelistMissingURL(t *testing.T) {
	raw := []byte(`{"calendars":[{"trusted":true}]}`)
	require.Error(t, ValidateWhitelist(raw))
}

func TestValidateInfoOK(t *testing.T) {
	raw := []byte(`{"msg":"deadbeef","complete":true,"attestations":[{"kind":"bitcoin","height":700000}]}`)
	require.NoError(t, ValidateInfo(raw))
}

func TestValidateInfoMissingMsg(t *testing.T) {
	raw := []byte(`{"attestations":[]}`)
	require.Error(t, ValidateInfo(raw))
}
