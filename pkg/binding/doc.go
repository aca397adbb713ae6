// Package binding connects lesson widgets to the variable store.
//
// A widget reads a variable with UseVariable, which returns the current
// value (or the widget's fallback) and subscribes the widget so that it is
// marked dirty on every later write. Subscriptions live in a Scope and are
// released when the scope is disposed, so unmounting a widget is enough to
// stop its notifications.
//
// Writes go through SetVariable, which checks the value's kind against the
// registry before handing it to the store:
//
//	w := binding.NewWidget(root, queue, func(w *binding.Widget) {
//	    angle := b.UseVariable(w.Scope(), w, "sineAngle", value.Number(45))
//	    draw(angle)
//	})
//	w.Render()
//
//	_ = b.SetVariable(ctx, "sineAngle", value.Number(90))
//	queue.Flush() // w renders again and sees 90
package binding
