package dto

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIssueTokenRequest_Validate(t *testing.T) {
	t.Run("Success_ValidRequest", func(t *testing.T) {
		clientID := uuid.Must(uuid.NewV7())
		req := IssueTokenRequest{
			ClientID:     clientID.String(),
			ClientSecret: "test_secret_123",
		}

		err := req.Validate()
		assert.NoError(t, err)
	})

	t.Run("Error_MissingClientID", func(t *testing.T) {
		req := IssueTokenRequest{
			ClientID:     "",
			ClientSecret: "test_secret_123",
		}

		err := req.Validate()
		assert.Error(t, err)
	})

	t.Run("Error_MissingClientSecret", func(t *testing.T) {
		clientID := uuid.Must(uuid.NewV7())
		req := IssueTokenRequest{
			ClientID:     clientID.String(),
			ClientSecret: "",
		}

		err := req.Validate()
		assert.Error(t, err)
	})

	t.Run("Error_BlankClientID", func(t *testing.T) {
		req := IssueTokenRequest{
			ClientID:     "   ",
			ClientSecret: "test_secret_123",
		}

		err := req.Validate()
		assert.Error(t, err)
	})

	t.Run("Error_BlankClientSecret", func(t *testing.T) {
		clientID := uuid.Must(uuid.NewV7())
		req := IssueTokenRequest{
			ClientID:     clientID.String(),
			ClientSecret: "   ",
		}

		err := req.Validate()
		assert.Error(t, err)
	})
}
