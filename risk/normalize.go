package risk

// Normalize maps form values onto the spellings present in the training data.
// Only the weekday and weather fields are ever rewritten.
func Normalize(s Scenario) Scenario {
	s.Weekday = normalizeWeekday(s.Weekday)
	s.Weather = normalizeWeather(s.Weather)
	return s
}

func normalizeWeekday(day string) string {
	if day == "Miercoles" {
		return "Miércoles"
	}
	return day
}

func normalizeWeather(weather string) string {
	switch weather {
	case "Lluvia debil":
		return "Lluvia débil"
	case "Lluvia intensa":
		// Spelled this way in part of the historical records; the fitted
		// vocabulary only matches this exact byte sequence.
		return "LLuvia intensa"
	case "Desconocido":
		return "Se desconoce"
	}
	return weather
}

func normalizeColumn(column, value string) string {
	switch column {
	case ColWeekday:
		return normalizeWeekday(value)
	case ColWeather:
		return normalizeWeather(value)
	}
	return value
}
