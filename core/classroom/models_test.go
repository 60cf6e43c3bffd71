package classroom

import "testing"

func activeClassrooms() []Classroom {
	active := true
	rooms := make([]Classroom, 0, 4)
	for i, nc := range DefaultClassrooms() {
		rooms = append(rooms, Classroom{
			ID:       string(rune('a' + i)),
			Name:     nc.Name,
			AgeMin:   nc.AgeMin,
			AgeMax:   nc.AgeMax,
			Color:    nc.Color,
			IsActive: &active,
		})
	}
	return rooms
}

func TestForAge(t *testing.T) {
	rooms := activeClassrooms()

	tests := []struct {
		name     string
		age      int
		wantName string
		wantOK   bool
	}{
		{name: "below all bands", age: 3},
		{name: "lowest band lower bound", age: 4, wantName: "Abejitas", wantOK: true},
		{name: "lowest band upper bound", age: 6, wantName: "Abejitas", wantOK: true},
		{name: "second band", age: 7, wantName: "Estrellas", wantOK: true},
		{name: "third band", age: 10, wantName: "Leones", wantOK: true},
		{name: "highest band upper bound", age: 12, wantName: "Aguilas", wantOK: true},
		{name: "above all bands", age: 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room, ok := ForAge(rooms, tt.age)
			if ok != tt.wantOK {
				t.Fatalf("ForAge(%d) ok = %v, want %v", tt.age, ok, tt.wantOK)
			}
			if ok && room.Name != tt.wantName {
				t.Errorf("ForAge(%d) = %q, want %q", tt.age, room.Name, tt.wantName)
			}
		})
	}
}

func TestForAgeSkipsInactive(t *testing.T) {
	rooms := activeClassrooms()
	inactive := false
	rooms[0].IsActive = &inactive

	if _, ok := ForAge(rooms, 5); ok {
		t.Error("ForAge() matched an inactive classroom")
	}
}
