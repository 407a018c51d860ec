// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"strings"
	"testing"

	"github.com/hashicorp/go-uuid"
)

func TestNew(t *testing.T) {
	const uuidLen = 36
	type args struct {
		prefix string
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
		wantLen int
	}{
		{
			name: "valid",
			args: args{
				prefix: "req",
			},
			wantErr: false,
			wantLen: uuidLen + len("req_"),
		},
		{
			name: "no-prefix",
			args: args{
				prefix: "",
			},
			wantErr: false,
			wantLen: uuidLen,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.args.prefix)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.args.prefix != "" && !strings.HasPrefix(got, tt.args.prefix+"_") {
				t.Errorf("New() = %v, wanted it to start with %v", got, tt.args.prefix)
			}
			if len(got) != tt.wantLen {
				t.Errorf("New() = %v, with len of %d and wanted len of %v", got, len(got), tt.wantLen)
			}
			if _, err := uuid.ParseUUID(strings.TrimPrefix(got, tt.args.prefix+"_")); err != nil {
				t.Errorf("New() = %v, is not a uuid: %v", got, err)
			}
		})
	}
	t.Run("unique", func(t *testing.T) {
		a, err := New("")
		if err != nil {
			t.Fatal(err)
		}
		b, err := New("")
		if err != nil {
			t.Fatal(err)
		}
		if a == b {
			t.Errorf("New() returned the same id twice: %v", a)
		}
	})
}
