package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLinkName(t *testing.T) {
	tests := []struct {
		name string
		el   LinkElement
		want string
	}{
		{
			name: "explicit data-linkname wins",
			el:   LinkElement{DataLinkName: "my-custom-link", ID: "btn-login"},
			want: "my-custom-link",
		},
		{
			name: "element id",
			el:   LinkElement{ID: "btn-login"},
			want: "btn-login",
		},
		{
			name: "special id alias",
			el:   LinkElement{ID: "fundsIn_CreditCard"},
			want: "fundsin-creditcard-tile",
		},
		{
			name: "parent id when element id is unknown",
			el:   LinkElement{ID: "x9", ParentID: "canceltxn-reason-cont"},
			want: "canceltxn-reason-cont",
		},
		{
			name: "amplitude id fallback",
			el:   LinkElement{AmplitudeID: "button-review-continue"},
			want: "button-review-continue",
		},
		{
			name: "class name fallback",
			el:   LinkElement{Classes: []string{"col-md-6", "link-cancel-transfer"}},
			want: "link-cancel-transfer",
		},
		{
			name: "exact table name",
			el:   LinkElement{ID: "download-app"},
			want: "download-app",
		},
		{
			name: "unknown element",
			el:   LinkElement{ID: "x9", Classes: []string{"col-md-6"}},
			want: "",
		},
		{
			name: "bare prefix is not a name",
			el:   LinkElement{ID: "btn-"},
			want: "",
		},
		{
			name: "empty element",
			el:   LinkElement{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveLinkName(tt.el))
		})
	}
}
