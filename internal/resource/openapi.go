package resource

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Document строит OpenAPI-описание контракта backend для перечисленных коллекций.
func Document(descs []Descriptor, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Hydrosite content backend",
			Description: "REST-коллекции контента сайта: GET/POST /api/{resource}, PUT/DELETE /api/{resource}/{id}",
			Version:     version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"Error": openapi3.NewSchemaRef("", openapi3.NewObjectSchema().
					WithProperty("message", openapi3.NewStringSchema())),
			},
		},
	}
	errorRef := openapi3.NewSchemaRef("#/components/schemas/Error", doc.Components.Schemas["Error"].Value)

	for _, d := range descs {
		itemName := schemaName(d.Name)
		doc.Components.Schemas[itemName] = openapi3.NewSchemaRef("", d.ItemSchema())
		itemRef := openapi3.NewSchemaRef("#/components/schemas/"+itemName, doc.Components.Schemas[itemName].Value)

		list := openapi3.NewOperation()
		list.OperationID = "list_" + d.Name
		list.Tags = []string{d.Name}
		list.Summary = "Полный список элементов"
		list.Responses = openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().
				WithDescription("Элементы коллекции").
				WithJSONSchema(openapi3.NewArraySchema().WithItems(itemRef.Value))}),
		)

		create := openapi3.NewOperation()
		create.OperationID = "create_" + d.Name
		create.Tags = []string{d.Name}
		create.Summary = "Создание элемента"
		create.RequestBody = &openapi3.RequestBodyRef{Value: requestBody(d, true)}
		create.Responses = mutationResponses(http.StatusCreated, itemRef, errorRef)

		update := openapi3.NewOperation()
		update.OperationID = "update_" + d.Name
		update.Tags = []string{d.Name}
		update.Summary = "Полная замена редактируемых полей"
		update.Parameters = openapi3.Parameters{idParameter()}
		update.RequestBody = &openapi3.RequestBodyRef{Value: requestBody(d, false)}
		update.Responses = mutationResponses(http.StatusOK, itemRef, errorRef)
		update.Responses.Set("404", notFound(errorRef))

		del := openapi3.NewOperation()
		del.OperationID = "delete_" + d.Name
		del.Tags = []string{d.Name}
		del.Summary = "Удаление элемента"
		del.Parameters = openapi3.Parameters{idParameter()}
		del.Responses = openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().
				WithDescription("Элемент удалён")}),
		)
		del.Responses.Set("404", notFound(errorRef))

		doc.Paths.Set("/api/"+d.Name, &openapi3.PathItem{Get: list, Post: create})
		doc.Paths.Set("/api/"+d.Name+"/{id}", &openapi3.PathItem{Put: update, Delete: del})
	}

	download := openapi3.NewOperation()
	download.OperationID = "download_upload"
	download.Tags = []string{"uploads"}
	download.Summary = "Загруженный файл"
	download.Parameters = openapi3.Parameters{
		&openapi3.ParameterRef{Value: openapi3.NewPathParameter("filename").WithSchema(openapi3.NewStringSchema())},
	}
	download.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Содержимое файла")}),
	)
	download.Responses.Set("404", notFound(errorRef))
	doc.Paths.Set("/uploads/{filename}", &openapi3.PathItem{Get: download})

	return doc
}

func requestBody(d Descriptor, creating bool) *openapi3.RequestBody {
	content := openapi3.NewContentWithJSONSchema(d.RequestSchema(creating))
	if d.HasFile() {
		content["multipart/form-data"] = openapi3.NewMediaType().WithSchema(d.MultipartSchema(creating))
	}
	return openapi3.NewRequestBody().WithRequired(true).WithContent(content)
}

func mutationResponses(status int, itemRef, errorRef *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses(
		openapi3.WithStatus(status, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Элемент сохранён").
			WithJSONSchemaRef(itemRef)}),
	)
	responses.Set(strconv.Itoa(http.StatusBadRequest), &openapi3.ResponseRef{Value: openapi3.NewResponse().
		WithDescription("Тело запроса не прошло проверку").
		WithJSONSchemaRef(errorRef)})
	return responses
}

func notFound(errorRef *openapi3.SchemaRef) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{Value: openapi3.NewResponse().
		WithDescription("Элемент не найден").
		WithJSONSchemaRef(errorRef)}
}

func idParameter() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema())}
}

// schemaName — имя схемы элемента в components: slides → SlidesItem.
func schemaName(resource string) string {
	if resource == "" {
		return "Item"
	}
	return strings.ToUpper(resource[:1]) + resource[1:] + "Item"
}
