// Package validation reglas de validación de datos de usuario usadas antes de registrar o
// editar un perfil.
package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^(\+?56)?\s?9\s?[0-9]{4}\s?[0-9]{4}$`)
)

// Text nombres y apellidos: solo letras (con tildes y ñ) y espacios, mínimo 2 caracteres útiles.
func Text(s string) bool {
	if len([]rune(strings.TrimSpace(s))) < 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Email formato básico usuario@dominio.tld.
func Email(s string) bool {
	return emailRe.MatchString(s)
}

// Password mínimo 8 caracteres con al menos una mayúscula, una minúscula y un dígito.
func Password(s string) bool {
	if len(s) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

// Phone celular chileno: +56 9 XXXX XXXX con prefijo y espacios opcionales.
func Phone(s string) bool {
	return phoneRe.MatchString(s)
}

// Adult verifica que la fecha de nacimiento (YYYY-MM-DD) corresponda a 18 años o más en now.
func Adult(birthDate string, now time.Time) bool {
	born, err := time.Parse("2006-01-02", birthDate)
	if err != nil {
		return false
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return age >= 18
}

// Required valor no vacío tras recortar espacios.
func Required(s string) bool {
	return strings.TrimSpace(s) != ""
}

// Errors acumula errores de validación por campo.
type Errors map[string]string

// Add registra un error si cond es falso.
func (e Errors) Add(cond bool, field, msg string) {
	if !cond {
		e[field] = msg
	}
}

// Empty indica si no hubo errores.
func (e Errors) Empty() bool { return len(e) == 0 }
