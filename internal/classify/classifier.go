package classify

import (
	"fmt"
	"strings"

	"tarifador/internal/cdr"
)

// Resultado es la salida de la clasificación de un CallRecord. Indica la
// categoría, los candidatos a extensión propietaria y el número remoto que
// define el tipo de llamada a tarifar.
type Resultado struct {
	Categoria Categoria
	Entrante  bool
	Interna   bool
	SinCargo  bool

	// TipoLlamada es el código usado para buscar la tarifa (0 = sin cargo)
	TipoLlamada int

	// ExtensionCandidatos son los números, en orden de preferencia, contra
	// los que el resolver intenta ubicar la extensión propietaria.
	ExtensionCandidatos []string

	NumeroRemoto string

	// Descripcion explica al operador por qué el registro cayó en esta
	// categoría (código visto y rama que disparó).
	Descripcion string
}

// Prefijos que, junto con el largo, hacen plausible que un número sea una
// extensión interna durante la desambiguación de conferencias/transferencias.
var prefijosExtension = []string{"4", "5"}

// Clasificador aplica la clasificación en dos niveles: primero la taxonomía
// de códigos de disposición, y si el código no está mapeado, la propiedad de
// los números contra el índice de numeración.
type Clasificador struct {
	indice *IndiceNumeracion

	// confirmaExtension consulta al resolver si un número corresponde a una
	// extensión registrada. Se inyecta para mantener este paquete puro.
	confirmaExtension func(numero string) bool
}

// NewClasificador crea el clasificador con el índice de numeración ya cargado
func NewClasificador(indice *IndiceNumeracion, confirmaExtension func(string) bool) *Clasificador {
	if confirmaExtension == nil {
		confirmaExtension = func(string) bool { return false }
	}
	return &Clasificador{indice: indice, confirmaExtension: confirmaExtension}
}

// Clasificar determina la categoría de un registro. Es una función pura de
// sus entradas: mismo registro y mismos índices producen el mismo resultado.
func (c *Clasificador) Clasificar(r *cdr.CallRecord) Resultado {
	if r.Disposicion != nil {
		if cat, ok := taxonomia[*r.Disposicion]; ok {
			return c.clasificarPorDisposicion(r, *r.Disposicion, cat)
		}
	}
	return c.clasificarPorPropiedad(r)
}

func (c *Clasificador) clasificarPorDisposicion(r *cdr.CallRecord, codigo int, cat Categoria) Resultado {
	cobrado := r.NumeroOrigen()
	marcado := r.NumeroDestino()

	res := Resultado{
		Categoria:   cat,
		Descripcion: fmt.Sprintf("disposicion %d => %s", codigo, cat),
	}

	switch cat {
	case CategoriaEntrante:
		res.Entrante = true
		res.ExtensionCandidatos = []string{cobrado, r.NumeroOrigenOriginal()}
		res.NumeroRemoto = marcado
		res.TipoLlamada = TipoDesdeEtiqueta(r.TipoLlamada)

	case CategoriaSaliente:
		res.ExtensionCandidatos = []string{marcado, r.NumeroDestinoOriginal()}
		res.NumeroRemoto = cobrado
		res.TipoLlamada = TipoDesdeEtiqueta(r.TipoLlamada)

	case CategoriaInterna:
		res.Interna = true
		res.ExtensionCandidatos = []string{cobrado, r.NumeroOrigenOriginal()}
		res.NumeroRemoto = marcado
		res.TipoLlamada = TipoInterna

	case CategoriaConferencia, CategoriaTransferencia:
		res = c.desambiguar(r, res, cobrado, marcado)

	case CategoriaEntranteAbandonada:
		res.Entrante = true
		res.SinCargo = true
		res.TipoLlamada = TipoSinCargo
		res.ExtensionCandidatos = []string{cobrado, marcado}

	case CategoriaInternaAbandonada:
		res.Interna = true
		res.SinCargo = true
		res.TipoLlamada = TipoSinCargo
		res.ExtensionCandidatos = []string{cobrado, marcado}

	case CategoriaSalienteAbandonada, CategoriaOcupado, CategoriaVacante:
		res.SinCargo = true
		res.TipoLlamada = TipoSinCargo
		res.ExtensionCandidatos = []string{cobrado, marcado}
	}

	return res
}

// desambiguar resuelve la dirección de conferencias y transferencias: el
// endpoint que no parece extensión es el remoto.
func (c *Clasificador) desambiguar(r *cdr.CallRecord, res Resultado, cobrado, marcado string) Resultado {
	switch {
	case !c.pareceExtension(marcado):
		// saliente: el marcado es el remoto
		res.ExtensionCandidatos = []string{cobrado, r.NumeroOrigenOriginal()}
		res.NumeroRemoto = marcado
		res.TipoLlamada = TipoDesdeEtiqueta(r.TipoLlamada)
		res.Descripcion += " (saliente por heuristica)"

	case !c.pareceExtension(cobrado):
		// entrante: el cobrado es el remoto
		res.Entrante = true
		res.ExtensionCandidatos = []string{marcado, r.NumeroDestinoOriginal()}
		res.NumeroRemoto = cobrado
		res.TipoLlamada = TipoDesdeEtiqueta(r.TipoLlamada)
		res.Descripcion += " (entrante por heuristica)"

	default:
		// ambos extremos parecen extensiones
		res.Interna = true
		res.ExtensionCandidatos = []string{cobrado, marcado}
		res.NumeroRemoto = marcado
		res.TipoLlamada = TipoInterna
		res.Descripcion += " (interna: ambos extremos propios)"
	}
	return res
}

// pareceExtension aplica la heurística de forma: no vacío, largo 5 u 8
// dígitos o prefijo conocido, y además confirmado por el resolver como
// extensión registrada.
func (c *Clasificador) pareceExtension(numero string) bool {
	d := soloDigitos(numero)
	if d == "" {
		return false
	}

	forma := len(d) == 5 || len(d) == 8
	if !forma {
		for _, p := range prefijosExtension {
			if strings.HasPrefix(d, p) {
				forma = true
				break
			}
		}
	}
	if !forma {
		return false
	}
	return c.confirmaExtension(d)
}

// clasificarPorPropiedad es la clasificación secundaria para códigos de
// disposición no mapeados: prueba ambos números contra el índice de
// numeración propia.
func (c *Clasificador) clasificarPorPropiedad(r *cdr.CallRecord) Resultado {
	cobrado := r.NumeroOrigen()
	marcado := r.NumeroDestino()

	codigo := "ausente"
	if r.Disposicion != nil {
		codigo = fmt.Sprintf("%d", *r.Disposicion)
	}

	propioCobrado := c.indice.EsPropio(cobrado)
	propioMarcado := c.indice.EsPropio(marcado)

	switch {
	case propioCobrado && propioMarcado:
		return Resultado{
			Categoria:           CategoriaInterna,
			Interna:             true,
			TipoLlamada:         TipoInterna,
			ExtensionCandidatos: []string{cobrado, marcado},
			NumeroRemoto:        marcado,
			Descripcion:         fmt.Sprintf("codigo %s no mapeado: ambos numeros propios => interna", codigo),
		}
	case propioCobrado:
		return Resultado{
			Categoria:           CategoriaSaliente,
			TipoLlamada:         TipoDesdeEtiqueta(r.TipoLlamada),
			ExtensionCandidatos: []string{cobrado, r.NumeroOrigenOriginal()},
			NumeroRemoto:        marcado,
			Descripcion:         fmt.Sprintf("codigo %s no mapeado: origen propio, destino externo => saliente", codigo),
		}
	case propioMarcado:
		return Resultado{
			Categoria:           CategoriaEntrante,
			Entrante:            true,
			TipoLlamada:         TipoDesdeEtiqueta(r.TipoLlamada),
			ExtensionCandidatos: []string{marcado, r.NumeroDestinoOriginal()},
			NumeroRemoto:        cobrado,
			Descripcion:         fmt.Sprintf("codigo %s no mapeado: destino propio, origen externo => entrante", codigo),
		}
	default:
		return Resultado{
			Categoria:           CategoriaSinClasificar,
			TipoLlamada:         TipoSinCargo,
			ExtensionCandidatos: []string{cobrado, marcado},
			NumeroRemoto:        marcado,
			Descripcion:         fmt.Sprintf("codigo %s no mapeado: ningun numero propio => sin clasificar", codigo),
		}
	}
}
