package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidateBumpsPerRouteVersion(t *testing.T) {
	v := NewVersionInvalidator()

	assert.EqualValues(t, 0, v.Version("/chat"))

	v.Invalidate("/chat")
	v.Invalidate("/chat")
	v.Invalidate("/admin")

	assert.EqualValues(t, 2, v.Version("/chat"))
	assert.EqualValues(t, 1, v.Version("/admin"))
	assert.EqualValues(t, 0, v.Version("/other"))
}
