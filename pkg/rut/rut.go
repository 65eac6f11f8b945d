// Package rut valida y formatea el RUT chileno (Rol Único Tributario).
package rut

import (
	"fmt"
	"strings"
)

// Validate verifica el dígito verificador (módulo 11) de un RUT con o sin puntos y guion.
// rut puede ser "11.111.111-1", "11111111-1" o "111111111". El dígito K se acepta en minúscula.
func Validate(rut string) error {
	clean := Clean(rut)
	if len(clean) < 8 {
		return fmt.Errorf("rut: debe tener al menos 8 caracteres, se recibieron %d", len(clean))
	}
	body, dv := clean[:len(clean)-1], clean[len(clean)-1]
	expected, err := ComputeVerifier(body)
	if err != nil {
		return err
	}
	if dv != expected {
		return fmt.Errorf("rut: dígito verificador inválido: esperado %c, recibido %c", expected, dv)
	}
	return nil
}

// ComputeVerifier calcula el dígito verificador para el cuerpo numérico del RUT.
// Los pesos 2..7 se aplican de derecha a izquierda y se repiten.
func ComputeVerifier(body string) (byte, error) {
	if body == "" {
		return 0, fmt.Errorf("rut: cuerpo vacío")
	}
	sum, mult := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		d := body[i]
		if d < '0' || d > '9' {
			return 0, fmt.Errorf("rut: carácter no numérico %q en el cuerpo", d)
		}
		sum += int(d-'0') * mult
		if mult == 7 {
			mult = 2
		} else {
			mult++
		}
	}
	switch v := 11 - sum%11; v {
	case 11:
		return '0', nil
	case 10:
		return 'K', nil
	default:
		return byte('0' + v), nil
	}
}

// Clean elimina puntos, guiones y espacios, y pasa la K a mayúscula.
func Clean(rut string) string {
	r := strings.NewReplacer(".", "", "-", "", " ", "")
	return strings.ToUpper(r.Replace(rut))
}

// Format devuelve el RUT con puntos de miles y guion: "11111111" + "1" -> "11.111.111-1".
func Format(rut string) string {
	clean := Clean(rut)
	if clean == "" {
		return ""
	}
	if len(clean) == 1 {
		return clean
	}
	body, dv := clean[:len(clean)-1], clean[len(clean)-1:]
	var b strings.Builder
	for i, c := range body {
		if i > 0 && (len(body)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	return b.String() + "-" + dv
}
