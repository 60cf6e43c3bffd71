package student

import "testing"

func TestEffectiveClassroomID(t *testing.T) {
	tests := []struct {
		name string
		std  Student
		want string
	}{
		{
			name: "default only",
			std:  Student{ClassroomID: "room-a"},
			want: "room-a",
		},
		{
			name: "forced override wins",
			std:  Student{ClassroomID: "room-a", ForcedClassroomID: "room-b"},
			want: "room-b",
		},
		{
			name: "forced only",
			std:  Student{ForcedClassroomID: "room-b"},
			want: "room-b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.std.EffectiveClassroomID(); got != tt.want {
				t.Errorf("EffectiveClassroomID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFullName(t *testing.T) {
	std := Student{Name: "Ana", Surname: "Perez"}
	if got := std.FullName(); got != "Ana Perez" {
		t.Errorf("FullName() = %q", got)
	}
}
