package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tarifador/internal/database"
)

func registroPrueba() []database.Extension {
	return []database.Extension{
		{ID: 1, Numero: "40010", OrganizacionID: 100, EmpresaID: 200, CentroCostoID: 300, SectorID: 400, TablaPrecioEmpresa: 10, TablaPrecioOrganizacion: 20},
		{ID: 2, Numero: "6045551234", OrganizacionID: 100, EmpresaID: 201, CentroCostoID: 301, SectorID: 401, TablaPrecioEmpresa: 11, TablaPrecioOrganizacion: 20},
	}
}

func TestResolveDirecto(t *testing.T) {
	r := NewResolver(registroPrueba(), Options{})

	ext, ok := r.Resolve("40010")
	require.True(t, ok)
	assert.Equal(t, int64(1), ext.ID)
	assert.Equal(t, int64(200), ext.EmpresaID)

	_, ok = r.Resolve("99999")
	assert.False(t, ok)
}

func TestResolveFormas(t *testing.T) {
	opts := Options{CodigoPais: "57", CodigoAreaDefecto: "60"}
	r := NewResolver(registroPrueba(), Options{CodigoPais: "57", CodigoAreaDefecto: "60"})

	casos := []struct {
		nombre   string
		numero   string
		esperado int64
	}{
		{"con codigo de pais", "5740010", 1},
		{"con pais y area", "576045551234", 2},
		{"sin area", "45551234", 2},
		{"con cero inicial", "040010", 1},
		{"uri con simbolos", "+57 40010", 1},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			ext, ok := r.Resolve(c.numero)
			require.True(t, ok, "numero %q opts %+v", c.numero, opts)
			assert.Equal(t, c.esperado, ext.ID)
		})
	}
}

func TestResolveRegion(t *testing.T) {
	// Con la región configurada, la forma nacional de libphonenumber
	// permite resolver números en formato internacional con +.
	r := NewResolver(registroPrueba(), Options{Region: "CO"})

	ext, ok := r.Resolve("+576045551234")
	require.True(t, ok)
	assert.Equal(t, int64(2), ext.ID)

	_, ok = r.Resolve("+573015559999")
	assert.False(t, ok)
}

func TestResolvePrimerCandidatoGana(t *testing.T) {
	r := NewResolver(registroPrueba(), Options{})

	ext, ok := r.Resolve("99999", "6045551234", "40010")
	require.True(t, ok)
	assert.Equal(t, int64(2), ext.ID)
}

func TestResolveDeterminista(t *testing.T) {
	r := NewResolver(registroPrueba(), Options{CodigoPais: "57"})

	ext, ok := r.Resolve("40010")
	require.True(t, ok)
	for i := 0; i < 50; i++ {
		otra, ok2 := r.Resolve("40010")
		require.True(t, ok2)
		assert.Same(t, ext, otra)
	}
}

func TestConoce(t *testing.T) {
	r := NewResolver(registroPrueba(), Options{})

	assert.True(t, r.Conoce("40010"))
	assert.False(t, r.Conoce("3015551234"))
	assert.False(t, r.Conoce(""))
}
