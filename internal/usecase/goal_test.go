package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func week(days ...DayGoal) []DayGoal {
	out := make([]DayGoal, 7)
	copy(out, days)
	return out
}

func all(d DayGoal) []DayGoal {
	out := make([]DayGoal, 7)
	for i := range out {
		out[i] = d
	}
	return out
}

func TestComputeWeeklyGoal(t *testing.T) {
	semester := DayGoal{Assigned: true, WeeklyGoalHours: 40, RewardPoints: 5, PenaltyPoints: 3}
	vacation := DayGoal{Assigned: true, WeeklyGoalHours: 56, RewardPoints: 10, PenaltyPoints: 4}

	tests := []struct {
		name        string
		defaultGoal float64
		days        []DayGoal
		want        WeeklyGoal
	}{
		{
			name:        "all seven days of one date type equal its flat goal",
			defaultGoal: 20,
			days:        all(semester),
			want:        WeeklyGoal{GoalHours: 40, GoalMinutes: 2400, RewardPoints: 5, PenaltyPoints: 3, AssignedDays: 7},
		},
		{
			name:        "no assignment falls back to default with one point",
			defaultGoal: 20,
			days:        week(),
			want:        WeeklyGoal{GoalHours: 20, GoalMinutes: 1200, RewardPoints: 1, PenaltyPoints: 1},
		},
		{
			name:        "partial assignment normalizes points",
			defaultGoal: 21,
			days:        week(semester, semester, semester, semester, semester),
			// 5*40/7 + 2*21/7 = 34.571h; points 5*5/7 * 7/5 = 5
			want: WeeklyGoal{GoalHours: 5*40.0/7 + 2*21.0/7, GoalMinutes: 2074, RewardPoints: 5, PenaltyPoints: 3, AssignedDays: 5},
		},
		{
			name:        "mixed date types weight by day",
			defaultGoal: 0,
			days:        []DayGoal{semester, semester, semester, semester, vacation, vacation, vacation},
			// 4*40/7 + 3*56/7 = 46.857h; reward (4*5+3*10)/7 = 7.14 -> 7; penalty (12+12)/7 = 3.43 -> 3
			want: WeeklyGoal{GoalHours: 4*40.0/7 + 3*56.0/7, GoalMinutes: 2811, RewardPoints: 7, PenaltyPoints: 3, AssignedDays: 7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeWeeklyGoal(tt.defaultGoal, tt.days)
			assert.InDelta(t, tt.want.GoalHours, got.GoalHours, 1e-9)
			assert.Equal(t, tt.want.GoalMinutes, got.GoalMinutes)
			assert.Equal(t, tt.want.RewardPoints, got.RewardPoints)
			assert.Equal(t, tt.want.PenaltyPoints, got.PenaltyPoints)
			assert.Equal(t, tt.want.AssignedDays, got.AssignedDays)
		})
	}
}

func TestComputeWeeklyGoal_FlatRoundTrip(t *testing.T) {
	for _, hours := range []float64{1, 7, 12.5, 33.3, 40, 49, 70} {
		got := ComputeWeeklyGoal(0, all(DayGoal{Assigned: true, WeeklyGoalHours: hours, RewardPoints: 9, PenaltyPoints: 2}))
		assert.Equal(t, int(hours*60+0.5), got.GoalMinutes, "hours %v", hours)
		assert.Equal(t, 9, got.RewardPoints)
		assert.Equal(t, 2, got.PenaltyPoints)
	}
}
