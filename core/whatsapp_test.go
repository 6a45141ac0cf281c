package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhatsAppLink(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		msg   string
		want  string
	}{
		{
			name:  "local number gets country code",
			phone: "(11) 98765-4321",
			msg:   "Olá Ana!",
			want:  "https://wa.me/5511987654321?text=Ol%C3%A1%20Ana%21",
		},
		{
			name:  "international number kept",
			phone: "+55 11 98765-4321",
			msg:   "a&b",
			want:  "https://wa.me/5511987654321?text=a%26b",
		},
		{
			name:  "empty message",
			phone: "11 3333-4444",
			want:  "https://wa.me/551133334444?text=",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WhatsAppLink(tt.phone, tt.msg))
		})
	}
}
