package checkout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
)

const (
	testUserID    = "a3bb189e-8bf9-3888-9912-ace4e6543002"
	testProductID = "b4cc289e-8bf9-3888-9912-ace4e6543003"
	testProduct2  = "c5dd389e-8bf9-3888-9912-ace4e6543004"
)

func TestReferenceRoundTrip(t *testing.T) {
	codec, err := NewCodec("test-secret")
	require.NoError(t, err)

	ref := Reference{
		UserID:     testUserID,
		ProductIDs: []string{testProductID, testProduct2},
	}

	token, err := codec.Encode(ref)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "ref.v1."), "token should carry version prefix")

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, ref.UserID, decoded.UserID, "user ID should round-trip exactly")
	assert.Equal(t, ref.ProductIDs, decoded.ProductIDs, "product IDs should round-trip in order")
}

func TestReferenceTamperDetection(t *testing.T) {
	codec, err := NewCodec("test-secret")
	require.NoError(t, err)

	token, err := codec.Encode(Reference{
		UserID:     testUserID,
		ProductIDs: []string{testProductID},
	})
	require.NoError(t, err)

	t.Run("modified payload", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 4)
		// flip a payload character
		body := []byte(parts[2])
		if body[0] == 'A' {
			body[0] = 'B'
		} else {
			body[0] = 'A'
		}
		tampered := parts[0] + "." + parts[1] + "." + string(body) + "." + parts[3]

		_, err := codec.Decode(tampered)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err), "tampered payload must be rejected")
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewCodec("different-secret")
		require.NoError(t, err)

		_, err = other.Decode(token)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err), "token signed with another secret must be rejected")
	})

	t.Run("wrong version", func(t *testing.T) {
		_, err := codec.Decode("ref.v2." + strings.TrimPrefix(token, "ref.v1."))
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := codec.Decode("a3bb189e|b4cc289e,c5dd389e")
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err), "legacy concatenated format is not accepted")
	})
}

func TestReferenceEncodeValidation(t *testing.T) {
	codec, err := NewCodec("test-secret")
	require.NoError(t, err)

	_, err = codec.Encode(Reference{UserID: "not-a-uuid", ProductIDs: []string{testProductID}})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	_, err = codec.Encode(Reference{UserID: testUserID})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err), "empty product set must not be encodable")
}

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := NewCodec("")
	assert.Error(t, err)
}
