package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		name     string
		raw      datatypes.JSON
		expected map[string]interface{}
	}{
		{"empty", nil, map[string]interface{}{}},
		{"object", datatypes.JSON(`{"topic":"stress"}`), map[string]interface{}{"topic": "stress"}},
		{"malformed", datatypes.JSON(`{"topic":`), map[string]interface{}{}},
		{"array", datatypes.JSON(`[1,2]`), map[string]interface{}{}},
		{"null", datatypes.JSON(`null`), map[string]interface{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseMetadata(tt.raw))
		})
	}
}

func TestEncodeMetadataNil(t *testing.T) {
	assert.Equal(t, datatypes.JSON("{}"), EncodeMetadata(nil))
}
