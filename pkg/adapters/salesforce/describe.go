package salesforce

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/forceql/forceql/pkg/core"
)

// describeConcurrency caps parallel describe calls so bulk introspection
// does not eat the org's request allowance.
const describeConcurrency = 8

// globalDescribeResponse is the payload of GET /sobjects.
type globalDescribeResponse struct {
	SObjects []struct {
		Name      string `json:"name"`
		Label     string `json:"label"`
		KeyPrefix string `json:"keyPrefix"`
		Custom    bool   `json:"custom"`
		Queryable bool   `json:"queryable"`
	} `json:"sobjects"`
}

// describeResponse is the payload of GET /sobjects/{name}/describe.
type describeResponse struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	KeyPrefix  string `json:"keyPrefix"`
	Custom     bool   `json:"custom"`
	Queryable  bool   `json:"queryable"`
	Createable bool   `json:"createable"`
	Updateable bool   `json:"updateable"`
	Deletable  bool   `json:"deletable"`
	Fields     []struct {
		Name              string   `json:"name"`
		Label             string   `json:"label"`
		Type              string   `json:"type"`
		Length            int      `json:"length"`
		Nillable          bool     `json:"nillable"`
		Custom            bool     `json:"custom"`
		Createable        bool     `json:"createable"`
		Updateable        bool     `json:"updateable"`
		DefaultedOnCreate bool     `json:"defaultedOnCreate"`
		ReferenceTo       []string `json:"referenceTo"`
		RelationshipName  string   `json:"relationshipName"`
		PicklistValues    []struct {
			Value  string `json:"value"`
			Active bool   `json:"active"`
		} `json:"picklistValues"`
	} `json:"fields"`
}

// listObjects fetches the global describe.
func (c *client) listObjects(ctx context.Context) ([]core.ObjectSummary, error) {
	var resp globalDescribeResponse
	if err := c.get(ctx, c.basePath()+"/sobjects", nil, &resp); err != nil {
		return nil, err
	}

	out := make([]core.ObjectSummary, 0, len(resp.SObjects))
	for _, o := range resp.SObjects {
		out = append(out, core.ObjectSummary{
			Name:      o.Name,
			Label:     o.Label,
			KeyPrefix: o.KeyPrefix,
			Custom:    o.Custom,
			Queryable: o.Queryable,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// describeObject fetches full field metadata for one object.
func (c *client) describeObject(ctx context.Context, name string) (*core.ObjectMetadata, error) {
	var resp describeResponse
	if err := c.get(ctx, c.basePath()+"/sobjects/"+name+"/describe", nil, &resp); err != nil {
		return nil, c.noteQuirk(err, name)
	}

	meta := &core.ObjectMetadata{
		Name:       resp.Name,
		Label:      resp.Label,
		KeyPrefix:  resp.KeyPrefix,
		Custom:     resp.Custom,
		Queryable:  resp.Queryable,
		Createable: resp.Createable,
		Updateable: resp.Updateable,
		Deletable:  resp.Deletable,
		Fields:     make([]core.Field, 0, len(resp.Fields)),
	}
	for _, f := range resp.Fields {
		field := core.Field{
			Name:              f.Name,
			Label:             f.Label,
			Type:              f.Type,
			Length:            f.Length,
			Nillable:          f.Nillable,
			Custom:            f.Custom,
			Createable:        f.Createable,
			Updateable:        f.Updateable,
			DefaultedOnCreate: f.DefaultedOnCreate,
			ReferenceTo:       f.ReferenceTo,
			RelationshipName:  f.RelationshipName,
		}
		for _, pv := range f.PicklistValues {
			if pv.Active {
				field.PicklistValues = append(field.PicklistValues, pv.Value)
			}
		}
		meta.Fields = append(meta.Fields, field)
	}
	return meta, nil
}

// describeObjects fetches metadata for several objects concurrently,
// preserving the requested order.
func (c *client) describeObjects(ctx context.Context, names []string) ([]*core.ObjectMetadata, error) {
	out := make([]*core.ObjectMetadata, len(names))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(describeConcurrency)
	for i, name := range names {
		g.Go(func() error {
			meta, err := c.describeObject(ctx, name)
			if err != nil {
				return err
			}
			mu.Lock()
			out[i] = meta
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
