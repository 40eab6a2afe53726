package classify

import (
	"strconv"
	"strings"
)

// RangoNumeracion es un rango de numeración propia: código de área más un
// intervalo [Inicio, Fin] inclusivo sobre la parte local del número.
type RangoNumeracion struct {
	CodigoArea string
	Inicio     int64
	Fin        int64
}

// IndiceNumeracion responde "¿este número es nuestro?". Se construye una sola
// vez por corrida desde la tabla de números propios y la tabla de rangos, y
// después es de solo lectura.
type IndiceNumeracion struct {
	propios map[string]struct{}
	rangos  []RangoNumeracion
}

// NewIndiceNumeracion arma el índice a partir de los números explícitos y los
// rangos cargados de la base. Los números se normalizan a solo dígitos.
func NewIndiceNumeracion(numeros []string, rangos []RangoNumeracion) *IndiceNumeracion {
	idx := &IndiceNumeracion{
		propios: make(map[string]struct{}, len(numeros)),
		rangos:  rangos,
	}
	for _, n := range numeros {
		if d := soloDigitos(n); d != "" {
			idx.propios[d] = struct{}{}
		}
	}
	return idx
}

// Vacio reporta si el índice no tiene ni números explícitos ni rangos
func (i *IndiceNumeracion) Vacio() bool {
	return len(i.propios) == 0 && len(i.rangos) == 0
}

// EsPropio reporta si el número pertenece al inventario propio: o está en el
// conjunto explícito, o sus dos primeros dígitos coinciden con el código de
// área de algún rango y el resto cae dentro de [inicio, fin].
func (i *IndiceNumeracion) EsPropio(numero string) bool {
	d := soloDigitos(numero)
	if d == "" {
		return false
	}
	if _, ok := i.propios[d]; ok {
		return true
	}
	if len(d) <= 2 {
		return false
	}

	area, resto := d[:2], d[2:]
	local, err := strconv.ParseInt(resto, 10, 64)
	if err != nil {
		return false
	}
	for _, r := range i.rangos {
		if r.CodigoArea == area && local >= r.Inicio && local <= r.Fin {
			return true
		}
	}
	return false
}

func soloDigitos(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
