package titles

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		department string
		want       string
	}{
		{"fire generic", "There is a FIRE on the third floor", "Fire Safety Team", "Fire Safety Alert"},
		{"fire warehouse", "fire spreading in the warehouse", "Fire Safety Team", "Fire Alert at Warehouse Building"},
		{"smoke kitchen", "smoke coming out of the kitchen", "Fire Safety Team", "Kitchen Fire Emergency"},
		{"fire elevator", "I can see smoke near the elevator", "Fire Safety Team", "Fire Emergency Near Elevator"},
		{"medical chest", "someone is hurt, complaining of chest pain", "Emergency Medical Team", "Medical Emergency - Chest Pain"},
		{"medical hindi", "मुझे चिकित्सा सहायता की आवश्यकता है। मेरा सिर दर्द हो रहा है", "Emergency Medical Team", "Medical Alert - Head Injury"},
		{"medical generic", "a worker got injured", "Emergency Medical Team", "Medical Emergency Alert"},
		{"security parking", "suspicious person in the parking area", "Security Team", "Security Alert - Parking Area"},
		{"security entrance", "intruder at the entrance", "Security Team", "Security Breach at Main Entrance"},
		{"water basement", "water leak in the basement", "Facilities Team", "Water Leak in Basement"},
		{"water bathroom", "the bathroom is flooding", "Facilities Team", "Plumbing Issue - Restroom"},
		{"power", "total power outage on floor two", "IT Support Team", "Power Outage Alert"},
		{"hvac conference", "the air conditioning in conference room B is broken", "Facilities Team", "HVAC Issue - Conference Room"},
		{"hvac generic", "temperature is too high", "Facilities Team", "Climate Control Alert"},
		{"false alarm", "Never mind, false alarm, everything is okay now", "Administration Team", "False Alarm Report"},
		{"elevator", "the elevator is stuck between floors", "Maintenance Team", "Elevator Malfunction Alert"},
		{"slip", "someone had a slip near the lobby", "Emergency Medical Team", "Accident Report - Slip and Fall"},
		{"default", "hello can you hear me", "Housekeeping Team", "Housekeeping Team Alert"},
		{"empty", "", "Unclear", "Unclear Alert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.transcript, tt.department); got != tt.want {
				t.Errorf("Generate(%q, %q) = %q, want %q", tt.transcript, tt.department, got, tt.want)
			}
		})
	}
}

func TestGenerateFireWithoutSubKeyword(t *testing.T) {
	for _, s := range []string{"fire", "Fire in room 12", "a small fire, come quickly"} {
		if got := Generate(s, "x"); got != "Fire Safety Alert" {
			t.Errorf("Generate(%q) = %q", s, got)
		}
	}
}
