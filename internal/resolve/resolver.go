package resolve

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"tarifador/internal/database"
)

// Options controla la generación de formas canónicas de un número
type Options struct {
	// CodigoPais es el prefijo de país que se quita (ej: "57")
	CodigoPais string
	// CodigoAreaDefecto, si está configurado, genera formas con el área
	// antepuesta y removida.
	CodigoAreaDefecto string
	// Region es la región ISO para libphonenumber (ej: "CO"); vacía
	// deshabilita esa forma adicional.
	Region string
}

// Resolver ubica un número telefónico dentro del registro de extensiones y
// su ubicación organizacional. El índice se precalcula una sola vez desde el
// registro y después la resolución es una función pura de los candidatos.
type Resolver struct {
	opts   Options
	indice map[string]*database.Extension
}

// NewResolver construye el índice con todas las formas canónicas de cada
// número registrado. Ante dos extensiones que colisionan en una misma forma
// gana la primera en el orden del registro, para que la resolución sea
// determinista.
func NewResolver(extensiones []database.Extension, opts Options) *Resolver {
	r := &Resolver{
		opts:   opts,
		indice: make(map[string]*database.Extension, len(extensiones)*3),
	}
	for i := range extensiones {
		ext := &extensiones[i]
		for _, forma := range r.formas(ext.Numero) {
			if _, ok := r.indice[forma]; !ok {
				r.indice[forma] = ext
			}
		}
	}
	return r
}

// Resolve devuelve la extensión del primer candidato (en el orden dado) que
// coincide con el registro. El segundo valor es false si ningún candidato
// coincide.
func (r *Resolver) Resolve(candidatos ...string) (*database.Extension, bool) {
	for _, c := range candidatos {
		for _, forma := range r.formas(c) {
			if ext, ok := r.indice[forma]; ok {
				return ext, true
			}
		}
	}
	return nil, false
}

// Conoce reporta si el número corresponde a alguna extensión registrada
func (r *Resolver) Conoce(numero string) bool {
	_, ok := r.Resolve(numero)
	return ok
}

// formas genera las formas canónicas de un número: solo dígitos, sin código
// de país, sin país+área, sin cero inicial, con el área por defecto
// antepuesta/removida, y la forma nacional de libphonenumber.
func (r *Resolver) formas(numero string) []string {
	d := soloDigitos(numero)
	if d == "" {
		return nil
	}

	formas := []string{d}
	agregar := func(f string) {
		if f == "" {
			return
		}
		for _, existente := range formas {
			if existente == f {
				return
			}
		}
		formas = append(formas, f)
	}

	pais := r.opts.CodigoPais
	area := r.opts.CodigoAreaDefecto

	if pais != "" && strings.HasPrefix(d, pais) && len(d) > len(pais) {
		agregar(d[len(pais):])
	}
	if pais != "" && area != "" {
		if combo := pais + area; strings.HasPrefix(d, combo) && len(d) > len(combo) {
			agregar(d[len(combo):])
		}
	}
	if d[0] == '0' && len(d) > 1 {
		agregar(d[1:])
	}
	if area != "" {
		agregar(area + d)
		if strings.HasPrefix(d, area) && len(d) > len(area) {
			agregar(d[len(area):])
		}
	}
	if r.opts.Region != "" {
		if num, err := phonenumbers.Parse(numero, r.opts.Region); err == nil {
			agregar(phonenumbers.GetNationalSignificantNumber(num))
		}
	}

	return formas
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
