package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"hedge_bot/internal/apperr"
	"hedge_bot/internal/models"
)

func f2(v float64) string { // для красивого вывода
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parsePositive принимает "1,5" и "1.5". Ноль и отрицательные дают ошибку валидации.
func parsePositive(field, text string) (float64, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if text == "" {
		return 0, apperr.Validation(field, "empty value")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperr.Validation(field, "not a number: "+text)
	}
	if v <= 0 {
		return 0, apperr.Validation(field, "must be > 0")
	}
	return v, nil
}

func parseSeconds(field, text string) (time.Duration, error) {
	v, err := parsePositive(field, text)
	if err != nil {
		return 0, err
	}
	d := time.Duration(v * float64(time.Second))
	if d <= 0 {
		return 0, apperr.Validation(field, "must be > 0")
	}
	return d, nil
}

func parseInstruments(text string) ([]string, error) {
	out := models.NormalizeInstruments(strings.Fields(text))
	if len(out) == 0 {
		return nil, apperr.Validation(keyCoins, "no instruments given")
	}
	return out, nil
}
