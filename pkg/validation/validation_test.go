package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupShape struct {
	Email     string `binding:"required,email,notdisposable"`
	FirstName string `binding:"required,trimmedmin=2"`
}

func TestNotDisposable(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(signupShape{Email: "jo@example.com", FirstName: "Jo"}))

	err := v.Struct(signupShape{Email: "jo@Mailinator.com", FirstName: "Jo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notdisposable")
}

func TestTrimmedMin(t *testing.T) {
	v := New()

	err := v.Struct(signupShape{Email: "jo@example.com", FirstName: "  J  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trimmedmin")

	assert.NoError(t, v.Struct(signupShape{Email: "jo@example.com", FirstName: " Jo "}))
}

func TestEmailHelpers(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.com "))
	assert.Equal(t, "yopmail.com", EmailDomain("someone@YOPMAIL.com"))
	assert.Equal(t, "", EmailDomain("no-at-sign"))
	assert.Equal(t, "", EmailDomain("trailing@"))
	assert.True(t, IsDisposableEmail("x@guerrillamail.com"))
	assert.False(t, IsDisposableEmail("x@carbiooai.com"))
}

func TestRegisterWithGin_IsIdempotent(t *testing.T) {
	require.NoError(t, RegisterWithGin())
	require.NoError(t, RegisterWithGin())
}

type professionalShape struct {
	IsConstructionProfessional bool
	Profession                 string `binding:"required_if=IsConstructionProfessional true,omitempty,profession"`
	ProfessionOther            string `binding:"required_if=Profession other"`
	InvestorType               string `binding:"omitempty,investortype"`
}

func TestProfessionTags(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(professionalShape{}))
	assert.NoError(t, v.Struct(professionalShape{IsConstructionProfessional: true, Profession: "architect"}))
	assert.NoError(t, v.Struct(professionalShape{IsConstructionProfessional: true, Profession: "other", ProfessionOther: "Glazier"}))

	err := v.Struct(professionalShape{IsConstructionProfessional: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required_if")

	err = v.Struct(professionalShape{IsConstructionProfessional: true, Profession: "astronaut"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'profession' tag")

	err = v.Struct(professionalShape{IsConstructionProfessional: true, Profession: "other"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ProfessionOther")

	assert.NoError(t, v.Struct(professionalShape{InvestorType: "VC"}))
	assert.Error(t, v.Struct(professionalShape{InvestorType: "vc"}))
}
