package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

func TestCursorRoundTrip(t *testing.T) {
	now := time.Now()
	cursor := Cursor{CreatedAt: now, ID: 42}

	decoded, err := DecodeCursor(cursor.Encode())
	require.NoError(t, err)
	assert.Equal(t, now.UnixNano(), decoded.CreatedAt.UnixNano())
	assert.Equal(t, uint(42), decoded.ID)
}

func TestDecodeCursorMalformed(t *testing.T) {
	for _, token := range []string{"not-base64!!", "bm9jb2xvbg==", "YToxMg==", ""} {
		_, err := DecodeCursor(token)
		require.Error(t, err, "token %q", token)
		assert.Equal(t, errs.CodeInvalidArgument, errs.CodeOf(err))
	}
}
