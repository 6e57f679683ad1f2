// Package admin coordinates product create/edit/delete, including image
// upload, and reconciles the catalog store afterward.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/storefront-client/internal/apiclient"
	"github.com/example/storefront-client/internal/catalog"
	"github.com/example/storefront-client/internal/ui"
)

// ErrNoImageSource is reported when an upload is requested without a file;
// no network call is made in that case.
var ErrNoImageSource = errors.New("no image source provided")

// uploadField is the multipart form field the API expects the file under.
const uploadField = "file-to-upload"

// Orchestrator runs the admin mutations. Each operation decides locally
// what happens to dialog state: the editor stays open on failure so input
// can be corrected, the delete confirmation closes either way.
type Orchestrator struct {
	client   *apiclient.Client
	catalog  *catalog.Store
	tracker  *ui.Tracker
	notifier *ui.Notifier
	log      *zap.Logger

	editor  *ui.Modal
	confirm *ui.Modal
	target  DialogTarget
}

func NewOrchestrator(client *apiclient.Client, cat *catalog.Store, tracker *ui.Tracker, notifier *ui.Notifier, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		client:   client,
		catalog:  cat,
		tracker:  tracker,
		notifier: notifier,
		log:      log.Named("admin"),
	}
}

// BindDialogs attaches the editor and delete-confirmation dialogs the
// orchestrator opens and closes. Either may be nil in headless use.
func (o *Orchestrator) BindDialogs(editor, confirm *ui.Modal) {
	o.editor = editor
	o.confirm = confirm
}

// OpenEditor opens the editor dialog for the given target; Target reports
// what the dialog is currently editing.
func (o *Orchestrator) OpenEditor(target DialogTarget) error {
	if o.editor == nil {
		return ui.ErrNotMounted
	}
	o.target = target
	return o.editor.Open()
}

// Target reports what the editor dialog was last opened for.
func (o *Orchestrator) Target() DialogTarget {
	return o.target
}

// Submit writes the draft: POST for create, PUT for edit. On success it
// notifies with the record title, re-fetches the catalog and closes the
// editor; on failure the editor stays open and every server message is in
// the returned error.
func (o *Orchestrator) Submit(ctx context.Context, draft Draft, target DialogTarget) error {
	product, err := draft.normalize()
	if err != nil {
		return err
	}

	var label, verb string
	if target == TargetCreate {
		label, verb = "creating product", "created"
	} else {
		label, verb = "updating product", "updated"
	}
	o.tracker.Begin(label)
	defer o.tracker.End()

	body := map[string]catalog.Product{"data": product}
	if target == TargetCreate {
		err = o.client.Do(ctx, http.MethodPost, o.client.Scoped("admin/product"), body, nil)
	} else {
		err = o.client.Do(ctx, http.MethodPut, o.client.Scoped("admin/product/%s", product.ID), body, nil)
	}
	if err != nil {
		o.log.Error("submit failed",
			zap.String("target", string(target)),
			zap.String("title", product.Title),
			zap.Error(err))
		return fmt.Errorf("%s product %q: %w", target, product.Title, err)
	}

	o.notifier.Show(fmt.Sprintf("%s: %s", verb, product.Title))
	if err := o.catalog.Refresh(ctx); err != nil {
		o.log.Error("catalog refresh after submit failed", zap.Error(err))
	}
	o.closeEditor()
	return nil
}

// Delete removes the record. The confirmation dialog closes on success and
// on failure alike; a failed delete is reported through the returned error,
// never by keeping the dialog open.
func (o *Orchestrator) Delete(ctx context.Context, p catalog.Product) error {
	o.tracker.Begin("deleting product")
	defer o.tracker.End()
	defer o.closeConfirm()

	path := o.client.Scoped("admin/product/%s", p.ID)
	if err := o.client.Do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		o.log.Error("delete failed", zap.String("product", p.ID), zap.Error(err))
		return fmt.Errorf("delete product %q: %w", p.Title, err)
	}

	o.notifier.Show("deleted: " + p.Title)
	if err := o.catalog.Refresh(ctx); err != nil {
		o.log.Error("catalog refresh after delete failed", zap.Error(err))
	}
	return nil
}

type uploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

// UploadImage sends the file as multipart and writes the returned URL into
// the draft's primary image field. A nil file skips the network entirely
// and surfaces a notification instead.
func (o *Orchestrator) UploadImage(ctx context.Context, draft *Draft, filename string, file io.Reader) error {
	if file == nil {
		o.notifier.Show("no image source provided, upload skipped")
		return ErrNoImageSource
	}

	o.tracker.Begin("uploading image")
	defer o.tracker.End()

	var resp uploadResponse
	if err := o.client.Upload(ctx, o.client.Scoped("admin/upload"), uploadField, filename, file, &resp); err != nil {
		o.log.Error("upload failed", zap.String("filename", filename), zap.Error(err))
		return fmt.Errorf("upload image: %w", err)
	}

	if resp.ImageURL != "" {
		draft.ImageURL = resp.ImageURL
	}
	o.notifier.Show("image uploaded")
	return nil
}

// ToggleEnabled flips a product's listing state through a full-record
// update and announces the new state.
func (o *Orchestrator) ToggleEnabled(ctx context.Context, p catalog.Product, enabled bool) error {
	if err := o.catalog.SetEnabled(ctx, p, enabled); err != nil {
		return err
	}
	status := "disabled"
	if enabled {
		status = "enabled"
	}
	o.notifier.Show(fmt.Sprintf("[product] %s: %s", p.Title, status))
	return nil
}

func (o *Orchestrator) closeEditor() {
	if o.editor != nil && o.editor.IsOpen() {
		_ = o.editor.Close()
	}
}

func (o *Orchestrator) closeConfirm() {
	if o.confirm != nil && o.confirm.IsOpen() {
		_ = o.confirm.Close()
	}
}
