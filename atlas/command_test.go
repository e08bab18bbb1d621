package atlas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		given    string
		expected Kind
	}{
		{"R", KindRead},
		{"r", KindRead},
		{"RT,25.0", KindRead},
		{"Cal,mid,7.00", KindCalibration},
		{"CAL,clear", KindCalibration},
		{"cal", KindCalibration},
		{"Sleep", KindSleep},
		{"SLEEP", KindSleep},
		{"I", KindOther},
		{"Status", KindOther},
		{"", KindOther},
		{"C,1", KindOther},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			assert.Equal(t, test.expected, Classify(test.given))
		})
	}
}
