package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tarifador/internal/cdr"
)

func registro(disposicion *int, origen, destino, etiqueta string) *cdr.CallRecord {
	return &cdr.CallRecord{
		ID:          1,
		Origen:      "sip:" + origen + "@10.0.0.1",
		Destino:     "sip:" + destino + "@10.0.0.1",
		TipoLlamada: etiqueta,
		Disposicion: disposicion,
	}
}

func codigo(c int) *int { return &c }

func TestEsPropio(t *testing.T) {
	idx := NewIndiceNumeracion(
		[]string{"573015551234"},
		[]RangoNumeracion{{CodigoArea: "60", Inicio: 1000000, Fin: 1999999}},
	)

	casos := []struct {
		numero   string
		esperado bool
	}{
		{"573015551234", true},  // en el conjunto explícito
		{"573015551235", false}, // un dígito afuera
		{"601500000", true},     // dentro del rango
		{"601000000", true},     // borde inferior inclusivo
		{"601999999", true},     // borde superior inclusivo
		{"600999999", false},    // una unidad abajo
		{"602000000", false},    // una unidad arriba
		{"701500000", false},    // otro código de área
		{"", false},
	}

	for _, c := range casos {
		assert.Equal(t, c.esperado, idx.EsPropio(c.numero), "numero %q", c.numero)
	}
}

func TestClasificarEntranteSaliente(t *testing.T) {
	cl := NewClasificador(NewIndiceNumeracion(nil, nil), nil)

	r := registro(codigo(DisposicionEntrante), "40010", "3015551234", "LOCAL")
	res := cl.Clasificar(r)
	assert.Equal(t, CategoriaEntrante, res.Categoria)
	assert.True(t, res.Entrante)
	assert.False(t, res.Interna)
	assert.Equal(t, TipoLocal, res.TipoLlamada)
	require.NotEmpty(t, res.ExtensionCandidatos)
	assert.Equal(t, "40010", res.ExtensionCandidatos[0])
	assert.Equal(t, "3015551234", res.NumeroRemoto)

	r = registro(codigo(DisposicionSaliente), "3015551234", "40010", "CELULAR")
	res = cl.Clasificar(r)
	assert.Equal(t, CategoriaSaliente, res.Categoria)
	assert.False(t, res.Entrante)
	assert.Equal(t, TipoCelular, res.TipoLlamada)
	assert.Equal(t, "40010", res.ExtensionCandidatos[0])
	assert.Equal(t, "3015551234", res.NumeroRemoto)
}

func TestClasificarSinCargo(t *testing.T) {
	cl := NewClasificador(NewIndiceNumeracion(nil, nil), nil)

	for _, d := range []int{
		DisposicionEntranteAbandonada,
		DisposicionSalienteAbandonada,
		DisposicionInternaAbandonada,
		DisposicionOcupado,
		DisposicionVacante,
	} {
		res := cl.Clasificar(registro(codigo(d), "40010", "3015551234", "LOCAL"))
		assert.True(t, res.SinCargo, "disposicion %d", d)
		assert.Equal(t, TipoSinCargo, res.TipoLlamada, "disposicion %d", d)
		assert.Empty(t, res.NumeroRemoto, "disposicion %d", d)
	}
}

func TestDesambiguarConferencia(t *testing.T) {
	extensiones := map[string]bool{"40010": true, "40020": true}
	cl := NewClasificador(NewIndiceNumeracion(nil, nil), func(n string) bool {
		return extensiones[n]
	})

	// marcado no es extensión => saliente
	res := cl.Clasificar(registro(codigo(DisposicionTransferencia), "40010", "3015551234", "CELULAR"))
	assert.Equal(t, CategoriaTransferencia, res.Categoria)
	assert.False(t, res.Entrante)
	assert.Equal(t, "3015551234", res.NumeroRemoto)
	assert.Equal(t, "40010", res.ExtensionCandidatos[0])

	// cobrado no es extensión => entrante
	res = cl.Clasificar(registro(codigo(DisposicionConferencia), "3015551234", "40010", "LOCAL"))
	assert.Equal(t, CategoriaConferencia, res.Categoria)
	assert.True(t, res.Entrante)
	assert.Equal(t, "3015551234", res.NumeroRemoto)

	// ambos son extensiones => interna
	res = cl.Clasificar(registro(codigo(DisposicionConferencia), "40010", "40020", ""))
	assert.True(t, res.Interna)
	assert.Equal(t, TipoInterna, res.TipoLlamada)
}

func TestPrecedenciaTaxonomia(t *testing.T) {
	// Un código mapeado nunca pasa por el clasificador de respaldo, aunque
	// ambos números sean técnicamente propios.
	idx := NewIndiceNumeracion([]string{"40010", "40020"}, nil)
	cl := NewClasificador(idx, nil)

	res := cl.Clasificar(registro(codigo(DisposicionSaliente), "40010", "40020", "LOCAL"))
	assert.Equal(t, CategoriaSaliente, res.Categoria)
	assert.NotContains(t, res.Descripcion, "no mapeado")
}

func TestClasificarPorPropiedad(t *testing.T) {
	idx := NewIndiceNumeracion([]string{"40010", "40020"}, nil)
	cl := NewClasificador(idx, nil)

	casos := []struct {
		nombre    string
		origen    string
		destino   string
		categoria Categoria
	}{
		{"solo cobrado propio", "40010", "3015551234", CategoriaSaliente},
		{"solo marcado propio", "3015551234", "40010", CategoriaEntrante},
		{"ambos propios", "40010", "40020", CategoriaInterna},
		{"ninguno propio", "3015551234", "3025556789", CategoriaSinClasificar},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			res := cl.Clasificar(registro(codigo(37), c.origen, c.destino, "LOCAL"))
			assert.Equal(t, c.categoria, res.Categoria)
			assert.Contains(t, res.Descripcion, "codigo 37 no mapeado")
		})
	}
}

func TestClasificarSinDisposicion(t *testing.T) {
	idx := NewIndiceNumeracion([]string{"40010"}, nil)
	cl := NewClasificador(idx, nil)

	res := cl.Clasificar(registro(nil, "40010", "3015551234", "LOCAL"))
	assert.Equal(t, CategoriaSaliente, res.Categoria)
	assert.Contains(t, res.Descripcion, "codigo ausente")
}
