package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSegundosTarifados(t *testing.T) {
	casos := []struct {
		crudo    int
		esperado int
	}{
		{-10, 0},
		{0, 0},
		{1, 60},
		{45, 60},
		{60, 60},
		{61, 66},
		{66, 66},
		{67, 72},
		{125, 126},
		{3600, 3600},
	}

	for _, c := range casos {
		assert.Equal(t, c.esperado, SegundosTarifados(c.crudo), "crudo %d", c.crudo)
	}
}

func TestSegundosTarifadosMonotonia(t *testing.T) {
	anterior := 0
	for crudo := 0; crudo <= 600; crudo++ {
		tarifado := SegundosTarifados(crudo)
		assert.GreaterOrEqual(t, tarifado, anterior, "crudo %d", crudo)
		anterior = tarifado
	}
}

func TestImporte(t *testing.T) {
	medio := decimal.RequireFromString("0.50")

	// 0.50/min por 126s => 1.05
	assert.True(t, Importe(medio, 126).Equal(decimal.RequireFromString("1.05")),
		"importe: %s", Importe(medio, 126))

	// duración cero o tarifa cero => 0.00
	assert.True(t, Importe(medio, 0).IsZero())
	assert.True(t, Importe(decimal.Zero, 126).IsZero())

	// redondeo mitad hacia arriba: 0.25/min por 66s = 0.275 => 0.28
	cuarto := decimal.RequireFromString("0.25")
	assert.True(t, Importe(cuarto, 66).Equal(decimal.RequireFromString("0.28")),
		"importe: %s", Importe(cuarto, 66))
}

func TestIndiceTarifas(t *testing.T) {
	idx := NewIndiceTarifas([]TarifaFila{
		{TablaPrecio: 10, TipoLlamada: 1, Tarifa: decimal.RequireFromString("0.50")},
		{TablaPrecio: 10, TipoLlamada: 3, Tarifa: decimal.RequireFromString("1.20")},
	})

	assert.True(t, idx.Tarifa(10, 1).Equal(decimal.RequireFromString("0.50")))
	assert.True(t, idx.Tarifa(10, 3).Equal(decimal.RequireFromString("1.20")))

	// combinación ausente => tarifa cero, no error
	assert.True(t, idx.Tarifa(10, 9).IsZero())
	assert.True(t, idx.Tarifa(99, 1).IsZero())
}
