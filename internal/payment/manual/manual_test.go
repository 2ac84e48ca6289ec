package manual

import (
	"context"
	"errors"
	"testing"

	"go-digistore/internal/models"

	"github.com/stretchr/testify/assert"
)

type stubStore struct {
	methods []models.ManualPaymentMethod
	err     error
}

func (s stubStore) GetActiveManualMethods(context.Context) ([]models.ManualPaymentMethod, error) {
	return s.methods, s.err
}

func TestActiveMethods(t *testing.T) {
	p := New(stubStore{methods: []models.ManualPaymentMethod{
		{ID: 1, ProviderName: "BCA"},
		{ID: 2, ProviderName: "DANA"},
	}})

	methods := p.ActiveMethods(context.Background())
	assert.Len(t, methods, 2)
	assert.Equal(t, "BCA", methods[0].ProviderName)
}

func TestActiveMethodsNeverFails(t *testing.T) {
	p := New(stubStore{err: errors.New("database is locked")})
	methods := p.ActiveMethods(context.Background())
	assert.NotNil(t, methods)
	assert.Empty(t, methods)

	p = New(stubStore{})
	methods = p.ActiveMethods(context.Background())
	assert.NotNil(t, methods)
	assert.Empty(t, methods)
}
