package metrics

// PipelineObserver adapts the chat pipeline counters to the event hooks the
// chat use case exposes.
type PipelineObserver struct {
	service string
	metrics *HTTPServerMetrics
}

func (m *HTTPServerMetrics) PipelineObserver(service string) *PipelineObserver {
	return &PipelineObserver{service: service, metrics: m}
}

func (o *PipelineObserver) SubTaskRouted(intent string) {
	o.metrics.RecordSubTask(o.service, intent)
}

func (o *PipelineObserver) RouterFallback() {
	o.metrics.RecordRouterFallback(o.service)
}

func (o *PipelineObserver) Retrieval(collection string, resultCount int) {
	o.metrics.RecordRetrieval(o.service, collection, resultCount)
}

func (o *PipelineObserver) StructuredFailure() {
	o.metrics.RecordStructuredFailure(o.service)
}
