package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"testing"

	apperrors "github.com/medplus/medplus-client/internal/errors"
	"github.com/stretchr/testify/assert"
)

type customErr struct{}

func (customErr) Error() string { return "custom" }

func TestClassify(t *testing.T) {
	assert.Empty(t, Classify(nil))
	assert.Equal(t, "auth", Classify(fmt.Errorf("call: %w", apperrors.Auth(http.StatusUnauthorized, nil))))
	assert.Equal(t, "network", Classify(apperrors.Network(goerrors.New("dial"))))
	assert.Equal(t, "errors_customerr", Classify(fmt.Errorf("wrap: %w", customErr{})))
	assert.Equal(t, "context_deadlineexceedederror", Classify(context.DeadlineExceeded))
}
