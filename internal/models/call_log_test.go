package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestCallLogSchema(t *testing.T) {
	s, err := schema.Parse(&CallLog{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	assert.Equal(t, "call_logs", s.Table)

	f := s.LookUpField("Questions")
	require.NotNil(t, f)
	assert.Equal(t, schema.DataType("text"), f.DataType)
}

func TestTextArrayRoundTrip(t *testing.T) {
	v, err := TextArray{"a", "b c"}.Value()
	require.NoError(t, err)

	var got TextArray
	require.NoError(t, got.Scan(v))
	assert.Equal(t, TextArray{"a", "b c"}, got)
}
