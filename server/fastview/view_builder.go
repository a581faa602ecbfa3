package fastview

import (
	"context"
	"errors"

	channerics "github.com/niceyeti/channerics/channels"
)

// ViewBuilderFunc builds a view from a done channel and its view-model channel.
type ViewBuilderFunc[ViewModel any] func(<-chan struct{}, <-chan ViewModel) ViewComponent

// ViewBuilder wires a source of data models to several views sharing one view-model.
// Each view receives every converted view-model.
type ViewBuilder[DataModel any, ViewModel any] struct {
	source   <-chan DataModel
	convert  func(DataModel) ViewModel
	builders []ViewBuilderFunc[ViewModel]
	done     <-chan struct{}
}

// NewViewBuilder returns an empty builder.
func NewViewBuilder[DataModel any, ViewModel any]() *ViewBuilder[DataModel, ViewModel] {
	return &ViewBuilder[DataModel, ViewModel]{}
}

// WithModel sets the data source and its conversion to the view-model.
func (vb *ViewBuilder[DataModel, ViewModel]) WithModel(
	source <-chan DataModel,
	convert func(DataModel) ViewModel,
) *ViewBuilder[DataModel, ViewModel] {
	vb.source = source
	vb.convert = convert
	return vb
}

// WithView appends a view; Build returns views in the order added.
func (vb *ViewBuilder[DataModel, ViewModel]) WithView(
	build ViewBuilderFunc[ViewModel],
) *ViewBuilder[DataModel, ViewModel] {
	vb.builders = append(vb.builders, build)
	return vb
}

// WithContext closes the view pipelines when ctx is done.
func (vb *ViewBuilder[DataModel, ViewModel]) WithContext(
	ctx context.Context,
) *ViewBuilder[DataModel, ViewModel] {
	vb.done = ctx.Done()
	return vb
}

var (
	// ErrNoViews is returned by Build when WithView was never called.
	ErrNoViews = errors.New("no views to build: WithView must be called")
	// ErrNoModel is returned by Build when WithModel was never called.
	ErrNoModel = errors.New("no model specified: WithModel must be called")
)

// Build converts the source to view-models, broadcasts them to every view, and returns the views.
func (vb *ViewBuilder[DataModel, ViewModel]) Build() ([]ViewComponent, error) {
	if len(vb.builders) == 0 {
		return nil, ErrNoViews
	}
	if vb.convert == nil || vb.source == nil {
		return nil, ErrNoModel
	}

	viewModels := channerics.Convert(vb.done, vb.source, vb.convert)
	fanout := channerics.Broadcast(vb.done, viewModels, len(vb.builders))

	views := make([]ViewComponent, 0, len(vb.builders))
	for i, build := range vb.builders {
		views = append(views, build(vb.done, fanout[i]))
	}
	return views, nil
}
