package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvencionSignoPorDefecto(t *testing.T) {
	c := ConvencionSigno{EspejadaNegativa: true}

	assert.Equal(t, int64(-123), c.ValorEspejado(123))
	assert.Equal(t, int64(456), c.Valor(IDTarificacion{Variante: IDNativa, Origen: 456}))
}

func TestConvencionSignoInvertida(t *testing.T) {
	c := ConvencionSigno{EspejadaNegativa: false}

	assert.Equal(t, int64(123), c.ValorEspejado(123))
	assert.Equal(t, int64(-456), c.Valor(IDTarificacion{Variante: IDNativa, Origen: 456}))
}

func TestConvencionSignoIdaYVuelta(t *testing.T) {
	for _, convencion := range []ConvencionSigno{
		{EspejadaNegativa: true},
		{EspejadaNegativa: false},
	} {
		for _, id := range []IDTarificacion{
			Espejada(1),
			Espejada(987654),
			{Variante: IDNativa, Origen: 42},
		} {
			assert.Equal(t, id, convencion.Desde(convencion.Valor(id)))
		}
	}
}

func TestRellenoPorTipo(t *testing.T) {
	assert.Equal(t, 0, rellenoPorTipo("INT"))
	assert.Equal(t, 0, rellenoPorTipo("decimal"))
	assert.Equal(t, "", rellenoPorTipo("varchar"))
	assert.NotZero(t, rellenoPorTipo("datetime"))
}

func TestPrepararInsert(t *testing.T) {
	l := &Ledger{
		tabla: "libro",
		columnas: map[string]columna{
			"id":          {Nombre: "id", TipoDato: "bigint"},
			"descripcion": {Nombre: "descripcion", TipoDato: "varchar", AceptaNula: true},
			"servicio":    {Nombre: "servicio", TipoDato: "varchar"},
			"actualizado": {Nombre: "actualizado", TipoDato: "datetime", TieneDefault: true},
			"empresa_id":  {Nombre: "empresa_id", TipoDato: "bigint", AceptaNula: true},
			"duracion":    {Nombre: "duracion", TipoDato: "int"},
		},
	}

	fila := Fila{
		"id":          int64(-7),
		"duracion":    125,
		"descripcion": "prueba",
		"inexistente": "se descarta",
	}

	nombres, valores := l.prepararInsert(fila)

	// servicio es NOT NULL sin default y no viene en la fila: entra con
	// relleno. actualizado tiene default y empresa_id acepta nulos: no
	// entran. inexistente no es columna física: se descarta.
	assert.Equal(t, []string{"descripcion", "duracion", "id", "servicio"}, nombres)
	assert.Equal(t, []any{"prueba", 125, int64(-7), ""}, valores)
}
