package usecase

import "math"

// DayGoal is the goal setting that applies to one calendar day of the week. A day without a
// date assignment, or whose date type has no setting for the student type, is unassigned.
type DayGoal struct {
	Assigned        bool
	WeeklyGoalHours float64
	RewardPoints    int
	PenaltyPoints   int
}

type WeeklyGoal struct {
	GoalHours     float64 `json:"goal_hours"`
	GoalMinutes   int     `json:"goal_minutes"`
	RewardPoints  int     `json:"reward_points"`
	PenaltyPoints int     `json:"penalty_points"`
	AssignedDays  int     `json:"assigned_days"`
}

// ComputeWeeklyGoal combines seven day settings into one weekly target.
//
// Every day contributes a seventh of its weekly goal hours; unassigned days use the student
// type's default. Reward and penalty come from assigned days only and are scaled by
// 7/assignedDays back to whole-week units. With no assigned day the flat default goal applies
// with one point either way.
func ComputeWeeklyGoal(defaultGoalHours float64, days []DayGoal) WeeklyGoal {
	var goalHours, reward, penalty float64
	assigned := 0
	for _, d := range days {
		if !d.Assigned {
			goalHours += defaultGoalHours / 7
			continue
		}
		assigned++
		goalHours += d.WeeklyGoalHours / 7
		reward += float64(d.RewardPoints) / 7
		penalty += float64(d.PenaltyPoints) / 7
	}

	if assigned == 0 {
		return WeeklyGoal{
			GoalHours:     defaultGoalHours,
			GoalMinutes:   int(math.Round(defaultGoalHours * 60)),
			RewardPoints:  1,
			PenaltyPoints: 1,
		}
	}

	scale := 7 / float64(assigned)
	return WeeklyGoal{
		GoalHours:     goalHours,
		GoalMinutes:   int(math.Round(goalHours * 60)),
		RewardPoints:  int(math.Round(reward * scale)),
		PenaltyPoints: int(math.Round(penalty * scale)),
		AssignedDays:  assigned,
	}
}
