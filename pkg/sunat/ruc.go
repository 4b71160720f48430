package sunat

import "fmt"

// pesos del módulo 11 de SUNAT, aplicados a los 10 primeros dígitos del RUC.
var rucWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// prefijos válidos: 10 persona natural, 15/16/17 otros, 20 persona jurídica.
var rucPrefixes = map[string]bool{"10": true, "15": true, "16": true, "17": true, "20": true}

// ValidateRUC valida que el RUC tenga 11 dígitos, un prefijo permitido y un
// dígito verificador correcto.
func ValidateRUC(ruc string) error {
	if len(ruc) != 11 {
		return fmt.Errorf("sunat: RUC debe tener 11 dígitos, se recibieron %d caracteres", len(ruc))
	}
	for _, r := range ruc {
		if r < '0' || r > '9' {
			return fmt.Errorf("sunat: RUC %q contiene caracteres no numéricos", ruc)
		}
	}
	if !rucPrefixes[ruc[:2]] {
		return fmt.Errorf("sunat: prefijo de RUC %q no válido", ruc[:2])
	}
	expected, err := ComputeRUCCheckDigit(ruc[:10])
	if err != nil {
		return err
	}
	if ruc[10] != expected {
		return fmt.Errorf("sunat: dígito verificador del RUC inválido: esperado %c, recibido %c", expected, ruc[10])
	}
	return nil
}

// ComputeRUCCheckDigit calcula el dígito verificador para los 10 primeros dígitos del RUC.
func ComputeRUCCheckDigit(base string) (byte, error) {
	if len(base) < 10 {
		return 0, fmt.Errorf("sunat: se requieren 10 dígitos para calcular el verificador, se recibieron %d", len(base))
	}
	var sum int
	for i := 0; i < 10; i++ {
		c := base[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("sunat: carácter no numérico %q en el RUC", c)
		}
		sum += int(c-'0') * rucWeights[i]
	}
	d := 11 - sum%11
	switch d {
	case 10:
		d = 0
	case 11:
		d = 1
	}
	return byte('0' + d), nil
}
