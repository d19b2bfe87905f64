package api

import (
	"context"
	"fmt"
	"net/http"
)

type ProjectsService struct {
	client *Client
}

func (s *ProjectsService) Create(ctx context.Context, name string) (*Project, error) {
	var p Project
	in := map[string]string{"name": name}
	if err := s.client.do(ctx, http.MethodPost, s.client.resolve("/v1/projects"), in, &p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &p, nil
}

func (s *ProjectsService) List(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := s.client.do(ctx, http.MethodGet, s.client.resolve("/v1/projects"), nil, &out); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

type GeometriesService struct {
	client *Client
}

func (s *GeometriesService) Create(ctx context.Context, projectID int64, fileURL string) (*Geometry, error) {
	var g Geometry
	in := map[string]any{"projectId": projectID, "fileUrl": fileURL}
	if err := s.client.do(ctx, http.MethodPost, s.client.resolve("/v1/geometries"), in, &g); err != nil {
		return nil, fmt.Errorf("create geometry: %w", err)
	}
	return &g, nil
}

func (s *GeometriesService) ListByProject(ctx context.Context, projectID int64) ([]Geometry, error) {
	var out []Geometry
	endpoint := s.client.resolve(fmt.Sprintf("/v1/projects/%d/geometries", projectID))
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("list geometries: %w", err)
	}
	return out, nil
}

func (s *GeometriesService) Get(ctx context.Context, id int64) (*Geometry, error) {
	var g Geometry
	if err := s.client.do(ctx, http.MethodGet, s.client.resolve(fmt.Sprintf("/v1/geometries/%d", id)), nil, &g); err != nil {
		return nil, fmt.Errorf("get geometry: %w", err)
	}
	return &g, nil
}

func (s *GeometriesService) Delete(ctx context.Context, id int64) (*DeleteResponse, error) {
	var out DeleteResponse
	if err := s.client.do(ctx, http.MethodDelete, s.client.resolve(fmt.Sprintf("/v1/geometries/%d", id)), nil, &out); err != nil {
		return nil, fmt.Errorf("delete geometry: %w", err)
	}
	return &out, nil
}

type MeshesService struct {
	client *Client
}

func (s *MeshesService) Create(ctx context.Context, geometryID int64, resolution int) (*Mesh, error) {
	var m Mesh
	in := map[string]any{"geometryId": geometryID, "resolution": resolution}
	if err := s.client.do(ctx, http.MethodPost, s.client.resolve("/v1/meshes"), in, &m); err != nil {
		return nil, fmt.Errorf("create mesh: %w", err)
	}
	return &m, nil
}

func (s *MeshesService) ListByGeometry(ctx context.Context, geometryID int64) ([]Mesh, error) {
	var out []Mesh
	endpoint := s.client.resolve(fmt.Sprintf("/v1/geometries/%d/meshes", geometryID))
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("list meshes: %w", err)
	}
	return out, nil
}

func (s *MeshesService) Get(ctx context.Context, id int64) (*Mesh, error) {
	var m Mesh
	if err := s.client.do(ctx, http.MethodGet, s.client.resolve(fmt.Sprintf("/v1/meshes/%d", id)), nil, &m); err != nil {
		return nil, fmt.Errorf("get mesh: %w", err)
	}
	return &m, nil
}

func (s *MeshesService) Delete(ctx context.Context, id int64) (*DeleteResponse, error) {
	var out DeleteResponse
	if err := s.client.do(ctx, http.MethodDelete, s.client.resolve(fmt.Sprintf("/v1/meshes/%d", id)), nil, &out); err != nil {
		return nil, fmt.Errorf("delete mesh: %w", err)
	}
	return &out, nil
}
