// README: Driver level ladder and earnings bonus.
package driver

type Level struct {
	Number   int
	Name     string
	MinTrips int
	// Bonus is the earnings bonus rate before the rating modifier.
	Bonus float64
}

var Levels = []Level{
	{Number: 1, Name: "Rookie", MinTrips: 0, Bonus: 0},
	{Number: 2, Name: "Apprentice", MinTrips: 5, Bonus: 0.02},
	{Number: 3, Name: "Regular", MinTrips: 15, Bonus: 0.04},
	{Number: 4, Name: "Skilled", MinTrips: 30, Bonus: 0.06},
	{Number: 5, Name: "Experienced", MinTrips: 50, Bonus: 0.08},
	{Number: 6, Name: "Expert", MinTrips: 75, Bonus: 0.10},
	{Number: 7, Name: "Veteran", MinTrips: 100, Bonus: 0.12},
	{Number: 8, Name: "Elite", MinTrips: 150, Bonus: 0.15},
	{Number: 9, Name: "Master", MinTrips: 200, Bonus: 0.18},
	{Number: 10, Name: "Legend", MinTrips: 300, Bonus: 0.20},
}

func LevelFor(trips int) Level {
	current := Levels[0]
	for _, l := range Levels {
		if trips < l.MinTrips {
			break
		}
		current = l
	}
	return current
}

// NextLevel returns the next rung, or ok=false at the top.
func NextLevel(trips int) (Level, bool) {
	for _, l := range Levels {
		if trips < l.MinTrips {
			return l, true
		}
	}
	return Level{}, false
}

func RatingModifier(rating float64) float64 {
	switch {
	case rating >= 4.8:
		return 1.2
	case rating >= 4.5:
		return 1.15
	case rating >= 4.0:
		return 1.1
	case rating < 3.0:
		return 0.9
	default:
		return 1.0
	}
}

func BonusRate(trips int, rating float64) float64 {
	return LevelFor(trips).Bonus * RatingModifier(rating)
}
