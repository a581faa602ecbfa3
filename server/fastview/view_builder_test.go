package fastview

import (
	"context"
	"html/template"
	"strconv"
	"testing"

	channerics "github.com/niceyeti/channerics/channels"
	. "github.com/smartystreets/goconvey/convey"
)

// echoView emits one update per view-model, with the view-model as the element text.
type echoView struct {
	id      string
	updates <-chan []EleUpdate
}

func newEchoView(id string, done <-chan struct{}, models <-chan string) ViewComponent {
	ev := &echoView{id: id}
	ev.updates = channerics.Convert(done, models, func(s string) []EleUpdate {
		return []EleUpdate{{EleId: ev.id, Ops: []Op{{Key: "textContent", Value: s}}}}
	})
	return ev
}

func (ev *echoView) Updates() <-chan []EleUpdate {
	return ev.updates
}

func (ev *echoView) Parse(t *template.Template) (string, error) {
	_, err := t.Parse(`{{ define "` + ev.id + `" }}<p id="` + ev.id + `">{{ . }}</p>{{ end }}`)
	return ev.id, err
}

func TestViewBuilder(t *testing.T) {
	Convey("When the builder is incomplete", t, func() {
		_, err := NewViewBuilder[int, string]().
			WithModel(make(chan int), strconv.Itoa).
			Build()
		So(err, ShouldEqual, ErrNoViews)

		_, err = NewViewBuilder[int, string]().
			WithView(func(done <-chan struct{}, models <-chan string) ViewComponent {
				return newEchoView("a", done, models)
			}).
			Build()
		So(err, ShouldEqual, ErrNoModel)
	})

	Convey("When views are built over a model", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		source := make(chan int)
		views, err := NewViewBuilder[int, string]().
			WithContext(ctx).
			WithModel(source, strconv.Itoa).
			WithView(func(done <-chan struct{}, models <-chan string) ViewComponent {
				return newEchoView("first", done, models)
			}).
			WithView(func(done <-chan struct{}, models <-chan string) ViewComponent {
				return newEchoView("second", done, models)
			}).
			Build()
		So(err, ShouldBeNil)
		So(len(views), ShouldEqual, 2)

		Convey("Every view receives every converted model, in the order built", func() {
			go func() { source <- 42 }()
			// Broadcast delivers to each output in turn, so drain both concurrently.
			results := make(chan []EleUpdate, 2)
			for _, view := range views {
				go func(updates <-chan []EleUpdate) { results <- <-updates }(view.Updates())
			}
			got := map[string]string{}
			for i := 0; i < 2; i++ {
				update := <-results
				got[update[0].EleId] = update[0].Ops[0].Value
			}
			So(got, ShouldResemble, map[string]string{"first": "42", "second": "42"})

			name, err := views[0].Parse(template.New("root"))
			So(err, ShouldBeNil)
			So(name, ShouldEqual, "first")
		})
	})
}
