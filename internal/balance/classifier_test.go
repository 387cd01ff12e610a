package balance

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		gen        float64
		load       float64
		gateway    float64
		wantState  LoadState
		wantDemand float64
	}{
		{
			name: "idle gateway surplus", gen: 5, load: 3, gateway: 0,
			wantState: StateSupply,
		},
		{
			name: "idle gateway deficit", gen: 3, load: 5, gateway: 0,
			wantState: StateDemand, wantDemand: 2,
		},
		{
			name: "idle gateway balanced", gen: 5, load: 5, gateway: 0,
			wantState: StateNormal,
		},
		{
			name: "donating with surplus left over", gen: 10, load: 5, gateway: 4,
			wantState: StateSupply, // 10-4=6 > 5
		},
		{
			name: "donating everything spare", gen: 10, load: 8, gateway: 4,
			wantState: StateNormal, // 10-4=6, load 8 >= 6
		},
		{
			name: "donating exactly to the margin", gen: 10, load: 6, gateway: 4,
			wantState: StateNormal, // tie resolves to NORMAL
		},
		{
			name: "receiving but still short", gen: 5, load: 10, gateway: -3,
			wantState: StateDemand, wantDemand: 2, // 5-(-3)=8 < 10
		},
		{
			name: "receiving enough", gen: 5, load: 8, gateway: -3,
			wantState: StateNormal, // 5-(-3)=8 >= 8
		},
		{
			name: "zero everything", gen: 0, load: 0, gateway: 0,
			wantState: StateNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(Snapshot{NetGen: tt.gen, NetLoad: tt.load, Gateway: tt.gateway})
			if c.State != tt.wantState {
				t.Errorf("Classify() state = %s, want %s", c.State, tt.wantState)
			}
			if c.DemandKW != tt.wantDemand {
				t.Errorf("Classify() demand = %v, want %v", c.DemandKW, tt.wantDemand)
			}
			if (c.DemandKW > 0) != (c.State == StateDemand) {
				t.Errorf("demand magnitude %v inconsistent with state %s", c.DemandKW, c.State)
			}
		})
	}
}
