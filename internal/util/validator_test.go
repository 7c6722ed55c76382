package util

import (
	"errors"
	"testing"

	"github.com/SeakMengs/certportal/pkg/certgen"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type eventForm struct {
	Name  string `validate:"required,strNotEmpty,cmax=10"`
	Short string `validate:"cmin=3"`
}

func TestCustomValidations(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterCustomValidations(v))

	tests := []struct {
		name    string
		form    eventForm
		wantTag string
	}{
		{"valid", eventForm{Name: "Go Day", Short: "abc"}, ""},
		{"whitespace name", eventForm{Name: "   ", Short: "abc"}, "strNotEmpty"},
		{"name too long after trim", eventForm{Name: "  abcdefghijk  ", Short: "abc"}, "cmax"},
		{"short too short after trim", eventForm{Name: "Go", Short: " ab "}, "cmin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.form)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}

			var ve validator.ValidationErrors
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantTag, ve[0].Tag())
		})
	}
}

func TestGenerateErrorMessages(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterCustomValidations(v))

	err := v.Struct(eventForm{Name: " ", Short: "abc"})
	msgs := GenerateErrorMessages(err, map[string]string{"Name": "name"})
	require.Len(t, msgs, 1)
	assert.Equal(t, "name", msgs[0].Field)
	assert.Contains(t, msgs[0].Message, "must not be empty")

	assert.Equal(t, "Record not found", GenerateErrorMessages(gorm.ErrRecordNotFound)[0].Message)
	assert.Equal(t, "Record not found", GenerateErrorMessages(certgen.ErrEventNotFound)[0].Message)

	msgs = GenerateErrorMessages(errors.New("boom"), "csv")
	assert.Equal(t, "csv", msgs[0].Field)
	assert.Equal(t, "boom", msgs[0].Message)
}

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(0, 0)
	assert.Equal(t, uint(1), page)
	assert.Equal(t, uint(20), size)

	page, size = NormalizePage(3, 1000)
	assert.Equal(t, uint(3), page)
	assert.Equal(t, uint(100), size)

	assert.Equal(t, 1, CalculateTotalPage(0, 20))
	assert.Equal(t, 3, CalculateTotalPage(41, 20))
}
