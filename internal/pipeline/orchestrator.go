package pipeline

import (
	"context"
	"database/sql"
	"math"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tarifador/internal/billing"
	"tarifador/internal/cdr"
	"tarifador/internal/classify"
	"tarifador/internal/database"
	"tarifador/internal/resolve"
)

// Fuente es la vista del almacén crudo que el procesador necesita
type Fuente interface {
	SelectPendientes(ctx context.Context, limite int, fechas []string, afterID int64) ([]int64, error)
	FetchLineas(ctx context.Context, ids []int64) ([]database.RawLine, error)
}

// Libro es la vista del libro de tarificación que el procesador necesita
type Libro interface {
	FilterExisting(ctx context.Context, ids []int64) (map[int64]struct{}, error)
	Insert(ctx context.Context, fila database.Fila) error
	SelectSinEmpresa(ctx context.Context, limite int, afterID int64) ([]database.FilaSinEmpresa, error)
	UpdateUbicacion(ctx context.Context, id int64, u database.Ubicacion) error
}

// Contadores resume una corrida para el operador
type Contadores struct {
	Creados      int
	Actualizados int
	Duplicados   int
	SinExtension int
	Invalidos    int
	Errores      int
}

// Options configura el procesador
type Options struct {
	BatchSize int
	Workers   int
	Leg       string
	DryRun    bool
}

// Procesador orquesta el ciclo completo: seleccionar pendientes, parsear,
// clasificar, resolver extensión, tarifar y asentar. El parseo y la
// clasificación corren en paralelo; la verificación de existentes y el
// INSERT quedan serializados para sostener el asiento único por registro.
type Procesador struct {
	fuente       Fuente
	libro        Libro
	clasificador *classify.Clasificador
	resolver     *resolve.Resolver
	tarifas      *billing.IndiceTarifas
	convencion   database.ConvencionSigno
	opts         Options
}

// NewProcesador crea el procesador de lotes
func NewProcesador(
	fuente Fuente,
	libro Libro,
	clasificador *classify.Clasificador,
	resolver *resolve.Resolver,
	tarifas *billing.IndiceTarifas,
	convencion database.ConvencionSigno,
	opts Options,
) *Procesador {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Procesador{
		fuente:       fuente,
		libro:        libro,
		clasificador: clasificador,
		resolver:     resolver,
		tarifas:      tarifas,
		convencion:   convencion,
		opts:         opts,
	}
}

// asiento es el resultado de procesar una línea: o una fila lista para el
// libro, o nada (la línea se descartó y el contador correspondiente lo dice).
type asiento struct {
	origenID int64
	fila     database.Fila
}

// Procesar corre el ciclo sobre todo lo pendiente. Con fechas no vacías solo
// entran las líneas creadas en esos días. Los errores por línea se acumulan
// y no frenan la corrida; los errores de consulta sí son fatales.
func (p *Procesador) Procesar(ctx context.Context, fechas []string) (Contadores, error) {
	var cont Contadores
	var acumulado *multierror.Error

	// El cursor avanza aunque el lote entero se descarte: las líneas que no
	// generan asiento seguirían saliendo en la selección de pendientes.
	afterID := int64(0)

	for {
		if err := ctx.Err(); err != nil {
			return cont, err
		}

		ids, err := p.fuente.SelectPendientes(ctx, p.opts.BatchSize, fechas, afterID)
		if err != nil {
			return cont, err
		}
		if len(ids) == 0 {
			break
		}
		afterID = ids[len(ids)-1]

		lineas, err := p.fuente.FetchLineas(ctx, ids)
		if err != nil {
			return cont, err
		}

		asientos := p.procesarLote(ctx, lineas, &cont)

		if err := p.asentar(ctx, asientos, &cont, &acumulado); err != nil {
			return cont, err
		}

		logrus.WithFields(logrus.Fields{
			"lote":    len(lineas),
			"cursor":  afterID,
			"creados": cont.Creados,
		}).Debug("lote procesado")
	}

	return cont, acumulado.ErrorOrNil()
}

// procesarLote parsea, clasifica y tarifa las líneas en paralelo. El orden
// de los asientos devueltos sigue el orden de entrada.
func (p *Procesador) procesarLote(ctx context.Context, lineas []database.RawLine, cont *Contadores) []asiento {
	resultados := make([]*asiento, len(lineas))

	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i, linea := range lineas {
		i, linea := i, linea
		g.Go(func() error {
			fila, descarte := p.procesarLinea(linea)
			if fila == nil {
				mu.Lock()
				switch descarte {
				case descarteInvalido:
					cont.Invalidos++
				case descarteSinExtension:
					cont.SinExtension++
				}
				mu.Unlock()
				return nil
			}
			resultados[i] = &asiento{origenID: linea.ID, fila: fila}
			return nil
		})
	}
	_ = g.Wait()

	asientos := make([]asiento, 0, len(resultados))
	for _, r := range resultados {
		if r != nil {
			asientos = append(asientos, *r)
		}
	}
	return asientos
}

type descarte int

const (
	descarteNinguno descarte = iota
	descarteInvalido
	descarteSinExtension
)

// procesarLinea lleva una línea cruda hasta su fila de asiento, o explica
// por qué se descarta. Los registros clasificados sin extensión conocida se
// descartan; los sin clasificar se asientan con ubicación nula para que el
// reanálisis los complete cuando el registro de extensiones crezca.
func (p *Procesador) procesarLinea(l database.RawLine) (database.Fila, descarte) {
	registro, err := cdr.Parse(l.ID, l.Linea, p.opts.Leg)
	if err != nil {
		return nil, descarteInvalido
	}

	res := p.clasificador.Clasificar(registro)

	var ext *database.Extension
	if res.Categoria != classify.CategoriaSinClasificar {
		var ok bool
		ext, ok = p.resolver.Resolve(res.ExtensionCandidatos...)
		if !ok {
			return nil, descarteSinExtension
		}
	}

	return p.construirFila(registro, res, ext), descarteNinguno
}

// construirFila arma la fila lógica del asiento. Las fechas cero se omiten
// para que el mapa de columnas del libro decida entre NULL y relleno.
func (p *Procesador) construirFila(registro *cdr.CallRecord, res classify.Resultado, ext *database.Extension) database.Fila {
	duracion := registro.DuracionSegundos()
	tarifada := billing.SegundosTarifados(duracion)

	tarifaEmpresa := decimal.Zero
	tarifaOrganizacion := decimal.Zero
	if ext != nil && !res.SinCargo {
		tarifaEmpresa = p.tarifas.Tarifa(ext.TablaPrecioEmpresa, res.TipoLlamada)
		tarifaOrganizacion = p.tarifas.Tarifa(ext.TablaPrecioOrganizacion, res.TipoLlamada)
	}

	// numero_conectado registra el extremo remoto de la llamada; las sin
	// cargo no tienen remoto y cae al destino previo a redirección.
	conectado := res.NumeroRemoto
	if conectado == "" {
		conectado = registro.NumeroDestinoOriginal()
	}

	fila := database.Fila{
		"id":                  p.convencion.ValorEspejado(registro.ID),
		"categoria":           string(res.Categoria),
		"entrante":            res.Entrante,
		"interna":             res.Interna,
		"tipo_llamada":        res.TipoLlamada,
		"servicio":            registro.TipoLlamada,
		"descripcion":         res.Descripcion,
		"tarifa_empresa":      tarifaEmpresa,
		"tarifa_organizacion": tarifaOrganizacion,
		"valor_empresa":       billing.Importe(tarifaEmpresa, tarifada),
		"valor_organizacion":  billing.Importe(tarifaOrganizacion, tarifada),
		"duracion_tarifada":   tarifada,
		"duracion":            duracion,
		"numero_cobrado":      registro.NumeroOrigen(),
		"numero_conectado":    conectado,
		"numero_marcado":      registro.NumeroDestino(),
	}

	if !registro.Inicio.IsZero() {
		fila["fecha_inicio"] = registro.Inicio
	}
	if !registro.Fin.IsZero() {
		fila["fecha_fin"] = registro.Fin
	}
	if registro.Disposicion != nil {
		fila["codigo_disposicion"] = *registro.Disposicion
	}

	if ext != nil {
		fila["organizacion_id"] = ext.OrganizacionID
		fila["empresa_id"] = ext.EmpresaID
		fila["centro_costo_id"] = ext.CentroCostoID
		fila["sector_id"] = ext.SectorID
		fila["extension_id"] = ext.ID
		fila["tabla_precio_empresa"] = ext.TablaPrecioEmpresa
		fila["tabla_precio_organizacion"] = ext.TablaPrecioOrganizacion
	} else {
		fila["organizacion_id"] = nil
		fila["empresa_id"] = nil
		fila["centro_costo_id"] = nil
		fila["sector_id"] = nil
		fila["extension_id"] = nil
		fila["tabla_precio_empresa"] = nil
		fila["tabla_precio_organizacion"] = nil
	}

	return fila
}

// asentar verifica existentes en lote y escribe los asientos nuevos. Esta
// sección corre serializada: es lo que garantiza a lo sumo un asiento por
// registro fuente dentro de la corrida.
func (p *Procesador) asentar(ctx context.Context, asientos []asiento, cont *Contadores, acumulado **multierror.Error) error {
	if len(asientos) == 0 {
		return nil
	}

	destinos := make([]int64, len(asientos))
	for i, a := range asientos {
		destinos[i] = p.convencion.ValorEspejado(a.origenID)
	}

	existentes, err := p.libro.FilterExisting(ctx, destinos)
	if err != nil {
		return err
	}

	for i, a := range asientos {
		if _, ya := existentes[destinos[i]]; ya {
			cont.Duplicados++
			continue
		}
		if p.opts.DryRun {
			cont.Creados++
			continue
		}
		if err := p.libro.Insert(ctx, a.fila); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"origen":    a.origenID,
				"categoria": a.fila["categoria"],
			}).Warn("asiento fallido, se continúa con el lote")
			cont.Errores++
			*acumulado = multierror.Append(*acumulado, err)
			continue
		}
		cont.Creados++
	}
	return nil
}

// Reanalizar recorre los asientos sin empresa y completa su ubicación si el
// registro de extensiones ya conoce alguno de sus números. Solo toca campos
// nulos: lo asentado no se reescribe.
func (p *Procesador) Reanalizar(ctx context.Context) (Contadores, error) {
	var cont Contadores
	var acumulado *multierror.Error

	// Los ids espejados son negativos: el cursor arranca del mínimo
	afterID := int64(math.MinInt64)

	for {
		if err := ctx.Err(); err != nil {
			return cont, err
		}

		filas, err := p.libro.SelectSinEmpresa(ctx, p.opts.BatchSize, afterID)
		if err != nil {
			return cont, err
		}
		if len(filas) == 0 {
			break
		}
		afterID = filas[len(filas)-1].ID

		for _, f := range filas {
			ext, ok := p.resolver.Resolve(candidatosReanalisis(f)...)
			if !ok {
				cont.SinExtension++
				continue
			}
			if p.opts.DryRun {
				cont.Actualizados++
				continue
			}
			err := p.libro.UpdateUbicacion(ctx, f.ID, database.Ubicacion{
				OrganizacionID: ext.OrganizacionID,
				EmpresaID:      ext.EmpresaID,
				CentroCostoID:  ext.CentroCostoID,
				SectorID:       ext.SectorID,
				ExtensionID:    ext.ID,
			})
			if err != nil {
				cont.Errores++
				acumulado = multierror.Append(acumulado, err)
				continue
			}
			cont.Actualizados++
		}

		logrus.WithFields(logrus.Fields{
			"lote":         len(filas),
			"cursor":       afterID,
			"actualizados": cont.Actualizados,
		}).Debug("lote de reanalisis procesado")
	}

	return cont, acumulado.ErrorOrNil()
}

// candidatosReanalisis elige los números a probar según la dirección del
// asiento: el extremo propio probable primero y los demás como respaldo.
// Los asientos sin clasificar quedan con entrante=false aunque su extensión
// sea el número cobrado, así que el cobrado siempre entra en la lista.
func candidatosReanalisis(f database.FilaSinEmpresa) []string {
	var candidatos []string
	agregar := func(n sql.NullString) {
		if n.Valid && n.String != "" {
			candidatos = append(candidatos, n.String)
		}
	}
	if f.Entrante {
		agregar(f.NumeroCobrado)
	} else {
		agregar(f.NumeroMarcado)
		agregar(f.NumeroCobrado)
	}
	agregar(f.NumeroConectado)
	return candidatos
}
